// Package orchestrator sequences one build end to end: select and mount
// the compiler shards it needs, stage its sources, install its
// dependencies, emit its toolchain files, run its build script, package
// the result, and tear everything down on every exit path including a
// panic.
package orchestrator

import (
	"context"

	"github.com/forgeline/sandboxctl/artifactstore"
	"github.com/forgeline/sandboxctl/depinstall"
	"github.com/forgeline/sandboxctl/envars"
	"github.com/forgeline/sandboxctl/errors"
	"github.com/forgeline/sandboxctl/mount"
	"github.com/forgeline/sandboxctl/pack"
	"github.com/forgeline/sandboxctl/prefix"
	"github.com/forgeline/sandboxctl/runner"
	"github.com/forgeline/sandboxctl/shard"
	"github.com/forgeline/sandboxctl/sourcestage"
	"github.com/forgeline/sandboxctl/toolchain"
	"github.com/forgeline/sandboxctl/ui"
)

// Request is everything one build needs, gathered from whatever recipe
// front-end (out of scope here) produced it.
type Request struct {
	ShardRequest  shard.Request
	Sources       []sourcestage.Source
	Dependencies  []depinstall.PackageSpec
	JuliaVersion  string
	Cmd           []string
	Env           envars.Envars
	Version       string
	OutputBase    string
	ForceOverride bool
	ClangUseLld   bool
}

// Orchestrator owns the collaborators a build is assembled from. The
// components this module implements itself are held as concrete types;
// the dependency graph, global store, stdlib resolver and runner are
// interfaces, so a caller can substitute fakes for those in tests.
type Orchestrator struct {
	Catalog   *shard.Catalog
	Selector  *shard.Selector
	Mounter   *mount.Mounter
	Graph     depinstall.DependencyGraph
	Store     depinstall.GlobalStore
	Stdlib    depinstall.StdlibResolver
	Diff      *depinstall.DiffStore
	Artifacts *artifactstore.Store
	Runner    runner.Runner
}

// Result is what a completed build produced.
type Result struct {
	Package  pack.Result
	Resolved []depinstall.PackageSpec
}

// Build runs req to completion under log, tearing down every mount and
// symlink-tree install it created before returning — on success, on
// error, and on panic, since a deferred teardown still runs while a panic
// unwinds the stack.
func (o *Orchestrator) Build(ctx context.Context, log ui.Logger, root string, req Request) (Result, error) {
	p, err := prefix.New(root)
	if err != nil {
		return Result{}, err
	}

	var teardown []func()
	runTeardown := func() {
		for i := len(teardown) - 1; i >= 0; i-- {
			teardown[i]()
		}
		teardown = nil
	}
	defer runTeardown()

	shards, err := o.Selector.Select(req.ShardRequest)
	if err != nil {
		return Result{}, err
	}

	var mounts []runner.Mount
	for _, s := range shards {
		storePath, err := o.Catalog.Path(s)
		if err != nil {
			return Result{}, err
		}
		mountedAt, err := o.Mounter.Mount(ctx, log, s, storePath)
		if err != nil {
			return Result{}, err
		}
		mounts = append(mounts, runner.Mount{Source: storePath, Target: mountedAt, ReadOnly: true})

		s := s
		teardown = append(teardown, func() {
			if err := o.Mounter.Unmount(ctx, log, s, false); err != nil {
				log.Warnf("unmounting %s: %s", s.ArtifactName, err)
			}
		})
	}

	target := req.ShardRequest.Target
	if err := p.LinkDestdir(target); err != nil {
		return Result{}, err
	}

	task := taskFor(log)
	ws := sourcestage.NewWorkspace(p.Srcdir())
	for _, src := range req.Sources {
		if _, err := src.Setup(task, ws); err != nil {
			return Result{}, errors.Wrapf(err, "staging source")
		}
	}

	triplet := target.Triplet()
	installer := depinstall.NewInstaller(p.Root, o.Graph, o.Store, o.Stdlib, o.Diff)
	installResult, err := installer.Install(log, triplet, req.JuliaVersion, req.Dependencies)
	if err != nil {
		return Result{}, err
	}
	for _, spec := range installResult.Resolved {
		hash := spec.TreeHash
		teardown = append(teardown, func() {
			if err := installer.Uninstall(hash); err != nil {
				log.Warnf("uninstalling %s: %s", hash, err)
			}
		})
	}

	toolchainReq := toolchain.Request{
		Host:        shard.Host,
		Target:      target,
		ClangUseLld: req.ClangUseLld,
		CCEnv:       req.Env["CC"],
		OutDir:      p.Metadir(),
	}
	if _, err := (toolchain.Emitter{}).Emit(toolchainReq); err != nil {
		return Result{}, err
	}

	if err := o.Runner.Run(ctx, req.Cmd, req.Env, mounts); err != nil {
		return Result{}, errors.Wrapf(err, "running build command")
	}

	pkg, err := pack.Package(o.Artifacts, p.Destdir(target), req.OutputBase, req.Version, target, req.ForceOverride)
	if err != nil {
		return Result{}, err
	}

	runTeardown()

	return Result{Package: pkg, Resolved: installResult.Resolved}, nil
}

func taskFor(log ui.Logger) *ui.Task {
	if t, ok := log.(*ui.Task); ok {
		return t
	}
	u, _ := ui.NewForTesting()
	return u.Task("build")
}
