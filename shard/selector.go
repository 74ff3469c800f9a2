package shard

import (
	"github.com/forgeline/sandboxctl/errors"
	"github.com/forgeline/sandboxctl/gccdb"
	"github.com/forgeline/sandboxctl/platform"
)

// Compiler is one of the compiler front-ends a build may request.
type Compiler string

const (
	C    Compiler = "c"
	Rust Compiler = "rust"
	Go_  Compiler = "go"
)

// Host is the reference platform every non-Rust shard is built on: musl
// keeps the host toolchain itself portable across glibc versions. Rust is
// hosted on glibc instead — "Rust is broken on musl", not to be revisited
// without evidence.
var Host = platform.Platform{OS: platform.Linux, Arch: platform.X86_64, Libc: platform.Musl}

// RustHost is the host platform Rust shards are built on.
var RustHost = platform.Platform{OS: platform.Linux, Arch: platform.X86_64, Libc: platform.Glibc}

// Request describes the inputs to Select.
type Request struct {
	Target        platform.Platform
	Compilers     []Compiler
	PreferredGCC  string
	PreferredLLVM string
	ArchiveKind   ArchiveKind
	// Bootstrap, if non-empty, switches Select into bootstrap mode: for
	// each named Kind, the newest-version shard of that name is selected
	// for every target (or host) it is built for, instead of running the
	// target-driven algorithm.
	Bootstrap []Kind
}

func (r Request) hasCompiler(c Compiler) bool {
	for _, have := range r.Compilers {
		if have == c {
			return true
		}
	}
	return false
}

// Selector chooses the minimal shard set a build needs, against a Catalog.
type Selector struct {
	catalog *Catalog
}

// NewSelector constructs a Selector over catalog.
func NewSelector(catalog *Catalog) *Selector {
	return &Selector{catalog: catalog}
}

// Select returns the shard set needed to satisfy req.
func (s *Selector) Select(req Request) ([]CompilerShard, error) {
	all, err := s.catalog.All()
	if err != nil {
		return nil, err
	}
	if len(req.Bootstrap) > 0 {
		return selectBootstrap(all, req.Bootstrap)
	}

	var out []CompilerShard
	host := Host.AbiAgnostic()
	target := req.Target.AbiAgnostic()

	out = append(out, find(all, Rootfs, host, nil))
	out = append(out, find(all, PlatformSupport, host, &target))

	if req.hasCompiler(C) {
		build, err := selectGCC(all, req.Target, req.PreferredGCC)
		if err != nil {
			return nil, err
		}
		out = append(out, findVersion(all, GCCBootstrap, host, &target, build.Version))
		out = append(out, find(all, LLVMBootstrap, host, nil))
		if !platform.Match(target, host) {
			out = append(out, find(all, PlatformSupport, host, &host))
			out = append(out, findVersion(all, GCCBootstrap, host, &host, build.Version))
		}
	}

	if req.hasCompiler(Rust) {
		rustHost := RustHost.AbiAgnostic()
		out = append(out, find(all, RustBase, rustHost, nil))
		out = append(out, find(all, RustToolchain, rustHost, &target))
		if !platform.Match(target, rustHost) {
			selfTarget := rustHost
			out = append(out, find(all, RustToolchain, rustHost, &selfTarget))
			out = append(out, find(all, PlatformSupport, rustHost, &rustHost))
			out = append(out, find(all, GCCBootstrap, rustHost, &rustHost))
		}
		if !platform.Match(target, host) {
			out = append(out, find(all, RustToolchain, rustHost, &host))
		}
	}

	if req.hasCompiler(Go_) {
		out = append(out, find(all, Go, host, nil))
	}

	return dedupAndFilterMissing(out), nil
}

func selectBootstrap(all []CompilerShard, kinds []Kind) ([]CompilerShard, error) {
	var out []CompilerShard
	for _, kind := range kinds {
		byTarget := map[string]CompilerShard{}
		for _, sh := range all {
			if sh.Name != kind {
				continue
			}
			key := sh.targetOrHostAAtriplet()
			cur, ok := byTarget[key]
			if !ok || gccdb.ParseVersion(sh.Version).Compare(gccdb.ParseVersion(cur.Version)) > 0 {
				byTarget[key] = sh
			}
		}
		for _, sh := range byTarget {
			out = append(out, sh)
		}
	}
	return out, nil
}

// find returns the first catalog entry matching kind/host/target, or a
// zero-value placeholder CompilerShard whose ArtifactName is empty;
// dedupAndFilterMissing drops those.
func find(all []CompilerShard, kind Kind, host platform.Platform, target *platform.Platform) CompilerShard {
	return findVersion(all, kind, host, target, "")
}

// findVersion is find with an additional exact-version constraint, used to
// pin the mounted GCCBootstrap shard to the build selectGCC chose. An empty
// version matches any.
func findVersion(all []CompilerShard, kind Kind, host platform.Platform, target *platform.Platform, version string) CompilerShard {
	for _, sh := range all {
		if sh.Name != kind {
			continue
		}
		if version != "" && sh.Version != version {
			continue
		}
		if !platform.Match(sh.Host, host) {
			continue
		}
		if !sameTarget(sh.Target, target) {
			continue
		}
		return sh
	}
	return CompilerShard{}
}

func sameTarget(a, b *platform.Platform) bool {
	if a == nil && b == nil {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	return platform.Match(*a, *b)
}

func dedupAndFilterMissing(in []CompilerShard) []CompilerShard {
	seen := map[string]bool{}
	var out []CompilerShard
	for _, sh := range in {
		if sh.ArtifactName == "" {
			continue
		}
		if seen[sh.ArtifactName] {
			continue
		}
		seen[sh.ArtifactName] = true
		out = append(out, sh)
	}
	return out
}

// marchMinGCCVersion is the minimum GCC release that introduced support
// for each microarchitecture extension.
var marchMinGCCVersion = map[string]string{
	"avx":        "4.9.0",
	"avx2":       "4.9.0",
	"avx512":     "6.1.0",
	"thunderx2":  "7.1.0",
	"neon":       "8.1.0",
	"vfp4":       "8.1.0",
	"carmel":     "8.1.0",
}

// selectGCC picks the GCC build whose (major, minor, patch) tuple has
// minimum L1 distance from preferred, among builds that satisfy target's
// ABI constraints and are present in the catalog for both target and host.
func selectGCC(all []CompilerShard, target platform.Platform, preferred string) (gccdb.GCCBuild, error) {
	have := func(p platform.Platform) map[string]bool {
		versions := map[string]bool{}
		for _, sh := range all {
			if sh.Name != GCCBootstrap {
				continue
			}
			tgt := sh.Host
			if sh.Target != nil {
				tgt = *sh.Target
			}
			if platform.Match(tgt, p) {
				versions[sh.Version] = true
			}
		}
		return versions
	}
	haveTarget := have(target)
	haveHost := have(Host.AbiAgnostic())

	var survivors []gccdb.GCCBuild
	for _, build := range gccdb.GCCBuilds() {
		if !haveTarget[build.Version] || !haveHost[build.Version] {
			continue
		}
		if target.ABI.LibgfortranVersion != 0 && target.ABI.LibgfortranVersion != build.ABI.LibgfortranVersion {
			continue
		}
		if target.ABI.LibstdcxxVersion != 0 && build.ABI.LibstdcxxVersion > target.ABI.LibstdcxxVersion {
			continue
		}
		if target.ABI.CxxStringABI == platform.Cxx11 && gccdb.ParseVersion(build.Version).Compare(gccdb.ParseVersion("5.0.0")) < 0 {
			continue
		}
		if march, ok := target.Extension("march"); ok {
			if min, ok := marchMinGCCVersion[march]; ok {
				if gccdb.ParseVersion(build.Version).Compare(gccdb.ParseVersion(min)) < 0 {
					continue
				}
			}
		}
		survivors = append(survivors, build)
	}
	if len(survivors) == 0 {
		return gccdb.GCCBuild{}, errors.ErrImpossibleABI
	}

	pref := gccdb.ParseVersion(preferred)
	best := survivors[0]
	bestDist := l1Distance(gccdb.ParseVersion(best.Version), pref)
	for _, build := range survivors[1:] {
		dist := l1Distance(gccdb.ParseVersion(build.Version), pref)
		if dist < bestDist {
			best, bestDist = build, dist
		}
	}
	return best, nil
}

func l1Distance(a, b gccdb.Version) int {
	ac, bc := a.Components(), b.Components()
	n := len(ac)
	if len(bc) > n {
		n = len(bc)
	}
	dist := 0
	for i := 0; i < n; i++ {
		var av, bv int
		if i < len(ac) {
			av = ac[i]
		}
		if i < len(bc) {
			bv = bc[i]
		}
		d := av - bv
		if d < 0 {
			d = -d
		}
		dist += d
	}
	return dist
}
