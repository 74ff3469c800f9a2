package toolchain

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/forgeline/sandboxctl/errors"
)

// Frontend is a build system this package emits toolchain files for.
type Frontend string

const (
	CMake Frontend = "cmake"
	Meson Frontend = "meson"
	Bazel Frontend = "bazel"
)

var frontendExt = map[Frontend]string{CMake: "cmake", Meson: "ini", Bazel: "bzl"}

// Emitter writes every toolchain file a Request needs.
type Emitter struct{}

// Result lists every path Emit wrote, files and symlinks alike.
type Result struct {
	Files []string
}

// Emit writes, for each of the host/target roles, a CMake/Meson/Bazel file
// per compiler variant plus the preferred-compiler symlink
// (host_<aat>.<ext> / target_<aat>.<ext>), and writes req's Cargo
// config.toml. req.OutDir is created if it doesn't already exist.
func (Emitter) Emit(req Request) (Result, error) {
	var res Result
	for _, role := range []Role{RoleHost, RoleTarget} {
		p := req.roleplatform(role).Resolve()
		aat := p.AAtriplet()
		preferred := preferredCompiler(p)

		for _, fe := range []Frontend{CMake, Meson, Bazel} {
			ext := frontendExt[fe]
			for _, compiler := range []Compiler{GCC, Clang} {
				name := fmt.Sprintf("%s_%s_%s.%s", role, aat, compilerSuffix(compiler), ext)
				path := filepath.Join(req.OutDir, name)
				if err := writeFile(path, render(fe, req, role, compiler)); err != nil {
					return Result{}, err
				}
				res.Files = append(res.Files, path)
			}

			linkName := fmt.Sprintf("%s_%s.%s", role, aat, ext)
			linkPath := filepath.Join(req.OutDir, linkName)
			linkTarget := fmt.Sprintf("%s_%s_%s.%s", role, aat, compilerSuffix(preferred), ext)
			if err := relink(linkPath, linkTarget); err != nil {
				return Result{}, err
			}
			res.Files = append(res.Files, linkPath)
		}
	}

	cargoPath := filepath.Join(req.OutDir, "config.toml")
	if err := writeFile(cargoPath, renderCargo([]Request{req})); err != nil {
		return Result{}, err
	}
	res.Files = append(res.Files, cargoPath)
	return res, nil
}

func render(fe Frontend, req Request, role Role, compiler Compiler) string {
	switch fe {
	case CMake:
		return renderCMake(req, role, compiler)
	case Meson:
		return renderMeson(req, role, compiler)
	case Bazel:
		return renderBazel(req, role, compiler)
	default:
		return ""
	}
}

func writeFile(path, content string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.WithStack(err)
	}
	return errors.WithStack(os.WriteFile(path, []byte(content), 0644))
}

// relink (re)points linkPath at linkTarget, a relative symlink within the
// same directory.
func relink(linkPath, linkTarget string) error {
	_ = os.Remove(linkPath)
	return errors.WithStack(os.Symlink(linkTarget, linkPath))
}
