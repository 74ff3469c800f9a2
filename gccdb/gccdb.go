// Package gccdb holds the static table of GCC and LLVM builds available to
// the shard selector: for each GCC release, the ABI facets that release's
// runtime libraries actually produce. This is the source of truth for
// ABI-to-toolchain mapping — selection never infers ABI from a version
// number by any means other than this table.
package gccdb

import (
	_ "embed"

	"github.com/alecthomas/hcl"

	"github.com/forgeline/sandboxctl/errors"
	"github.com/forgeline/sandboxctl/platform"
)

//go:embed builds.hcl
var buildsHCL []byte

// GCCBuild is one GCC release and the CompilerABI its runtime libraries
// produce.
type GCCBuild struct {
	Version string `hcl:"version,label"`
	ABI     platform.CompilerABI
}

// LLVMBuild is one LLVM release. LLVM does not carry the libgfortran/libstdc++
// ABI concerns GCC does, so it has no associated CompilerABI.
type LLVMBuild struct {
	Version string `hcl:"version,label"`
}

type gccEntry struct {
	Version     string `hcl:"version,label"`
	Libgfortran int    `hcl:"libgfortran"`
	Libstdcxx   int    `hcl:"libstdcxx"`
	Cxxstring   string `hcl:"cxxstring"`
}

type llvmEntry struct {
	Version string `hcl:"version,label"`
}

type table struct {
	GCC  []*gccEntry  `hcl:"gcc,block"`
	LLVM []*llvmEntry `hcl:"llvm,block"`
}

var (
	gccBuilds  []GCCBuild
	llvmBuilds []LLVMBuild
)

func init() {
	t := &table{}
	if err := hcl.Unmarshal(buildsHCL, t); err != nil {
		panic(errors.Wrap(err, "gccdb: malformed builds.hcl"))
	}
	for _, e := range t.GCC {
		cxx, err := cxxStringABIFromString(e.Cxxstring)
		if err != nil {
			panic(errors.Wrapf(err, "gccdb: gcc %q", e.Version))
		}
		gccBuilds = append(gccBuilds, GCCBuild{
			Version: e.Version,
			ABI: platform.CompilerABI{
				LibgfortranVersion: e.Libgfortran,
				LibstdcxxVersion:   e.Libstdcxx,
				CxxStringABI:       cxx,
			},
		})
	}
	for _, e := range t.LLVM {
		llvmBuilds = append(llvmBuilds, LLVMBuild{Version: e.Version})
	}
}

func cxxStringABIFromString(s string) (platform.CxxStringABI, error) {
	switch s {
	case "cxx03":
		return platform.Cxx03, nil
	case "cxx11":
		return platform.Cxx11, nil
	default:
		return platform.CxxStringABINone, errors.Errorf("unknown cxxstring_abi %q", s)
	}
}

// GCCBuilds returns the full static table of known GCC builds.
func GCCBuilds() []GCCBuild {
	out := make([]GCCBuild, len(gccBuilds))
	copy(out, gccBuilds)
	return out
}

// LLVMBuilds returns the full static table of known LLVM builds.
func LLVMBuilds() []LLVMBuild {
	out := make([]LLVMBuild, len(llvmBuilds))
	copy(out, llvmBuilds)
	return out
}

// NewestLLVM returns the highest-versioned known LLVM build.
func NewestLLVM() LLVMBuild {
	newest := llvmBuilds[0]
	for _, b := range llvmBuilds[1:] {
		if compareVersions(b.Version, newest.Version) > 0 {
			newest = b
		}
	}
	return newest
}
