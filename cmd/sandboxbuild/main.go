// Command sandboxbuild drives a single cross-compilation sandbox build
// from the command line: it wires the selector, mounter, dependency
// installer, toolchain emitter, and packager together behind the
// orchestrator, using filesystem-backed stand-ins for the registry client
// and content downloader this repository assumes as external
// collaborators.
package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/mattn/go-isatty"
	"github.com/posener/complete"
	"github.com/willabides/kongplete"

	"github.com/forgeline/sandboxctl/artifactstore"
	"github.com/forgeline/sandboxctl/buildscript"
	"github.com/forgeline/sandboxctl/config"
	"github.com/forgeline/sandboxctl/depinstall"
	"github.com/forgeline/sandboxctl/errors"
	"github.com/forgeline/sandboxctl/mount"
	"github.com/forgeline/sandboxctl/orchestrator"
	"github.com/forgeline/sandboxctl/runner"
	"github.com/forgeline/sandboxctl/shard"
	"github.com/forgeline/sandboxctl/ui"
)

var cli struct {
	LogLevel string `help:"Log level (trace, debug, info, warn, error)." default:"info"`

	Build              BuildCmd                    `cmd:"" help:"Run a cross-compilation build inside the sandbox."`
	InstallCompletions kongplete.InstallCompletions `cmd:"" help:"Install shell completions."`
}

func main() {
	u := ui.New(ui.AutoLevel(ui.LevelInfo), os.Stdout, os.Stderr,
		isatty.IsTerminal(os.Stdout.Fd()), isatty.IsTerminal(os.Stderr.Fd()))
	log := u.Task("sandboxbuild")
	cfg := config.Load(log)

	parser := kong.Must(&cli,
		kong.Name("sandboxbuild"),
		kong.Description("Cross-compilation sandbox orchestrator."),
		kong.UsageOnError(),
		kong.Vars{"storageDir": cfg.StorageDir},
	)

	kongplete.Complete(parser,
		kongplete.WithPredictor("dir", complete.PredictDirs("*")),
		kongplete.WithPredictor("file", complete.PredictFiles("*")),
	)

	ctx, err := parser.Parse(os.Args[1:])
	parser.FatalIfErrorf(err)

	var level ui.Level
	if err := level.UnmarshalText([]byte(cli.LogLevel)); err == nil {
		u.SetLevel(level)
	}

	err = ctx.Run(log, cfg)
	parser.FatalIfErrorf(err)
}

// BuildCmd runs one build end to end.
type BuildCmd struct {
	Target      string   `required:"" help:"Target triplet, e.g. aarch64-linux-gnu."`
	Compiler    []string `help:"Compiler front-ends to provision (c, rust, go)." default:"c"`
	Source      []string `help:"Source to stage: a directory, an archive file, or a git URL (optionally #ref)."`
	Dep         []string `help:"Dependency as name@version or name#treehash."`
	BuildScript string   `required:"" help:"Path to the build script to run inside the sandbox." type:"existingfile"`
	Version     string   `required:"" help:"Artifact version to stamp the package with."`
	Out         string   `required:"" help:"Output tarball base path (triplet/version/.tar.gz are appended)."`
	Force       bool     `help:"Overwrite an existing output tarball."`
	ClangUseLld bool     `help:"Prefer ld.lld over the aatriplet-prefixed linker for Clang builds."`

	ShardDir    string `help:"Directory of already-unpacked compiler shard artifacts." default:"${storageDir}/shards"`
	ArtifactDir string `help:"Content-addressed artifact store root." default:"${storageDir}/artifacts"`
	BuildRoot   string `help:"Scratch directory the build prefix is created under." default:"${storageDir}/builds"`
}

func (b *BuildCmd) Run(log *ui.Task, cfg config.Config) error {
	script, err := buildscript.Parse(b.BuildScript)
	if err != nil {
		return err
	}
	allowed := buildscript.DefaultAllowedCommands()
	for _, c := range b.Compiler {
		allowed[c] = true
	}
	if violations := script.Validate(allowed); len(violations) > 0 {
		return errors.Errorf("%s: disallowed commands:\n%s", b.BuildScript, strings.Join(violations, "\n"))
	}

	sources, err := parseSources(b.Source)
	if err != nil {
		return err
	}
	deps, err := parseDeps(b.Dep)
	if err != nil {
		return err
	}

	target, err := platformForTriplet(b.Target)
	if err != nil {
		return err
	}

	compilers := make([]shard.Compiler, 0, len(b.Compiler))
	for _, c := range b.Compiler {
		compilers = append(compilers, shard.Compiler(c))
	}

	shardStore := &fsShardStore{dir: b.ShardDir}
	catalog := shard.NewCatalog(shardStore, b.ShardDir)
	selector := shard.NewSelector(catalog)

	driver := mount.DriverOther
	switch cfg.Runner {
	case config.RunnerUserNS:
		driver = mount.DriverUserNamespace
	case config.RunnerDocker:
		driver = mount.DriverDocker
	}
	mounter := mount.NewMounter(b.BuildRoot, driver, cfg.StorageDir+"/eula", cfg.AutomaticApple, false)

	artifacts, err := artifactstore.Open(b.ArtifactDir)
	if err != nil {
		return err
	}

	o := &orchestrator.Orchestrator{
		Catalog:   catalog,
		Selector:  selector,
		Mounter:   mounter,
		Graph:     flatDependencyGraph{},
		Store:     &fsGlobalStore{dir: b.ArtifactDir},
		Stdlib:    unsupportedStdlibResolver{},
		Diff:      depinstall.NewDiffStore(b.BuildRoot + "/symlink-diffs.db"),
		Artifacts: artifacts,
		Runner:    runner.Local{Dir: b.BuildRoot},
	}

	req := orchestrator.Request{
		ShardRequest:  shard.Request{Target: target, Compilers: compilers},
		Sources:       sources,
		Dependencies:  deps,
		Cmd:           []string{"sh", b.BuildScript},
		Env:           systemEnv(),
		Version:       b.Version,
		OutputBase:    b.Out,
		ForceOverride: b.Force,
		ClangUseLld:   b.ClangUseLld,
	}

	result, err := o.Build(context.Background(), log, b.BuildRoot, req)
	if err != nil {
		return err
	}
	fmt.Printf("%s sha256=%s tree=%s\n", result.Package.Path, result.Package.Sha256, result.Package.TreeHash)
	return nil
}
