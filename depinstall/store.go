package depinstall

// GlobalStore ensures a resolved dependency's artifact tree is present in
// the process-wide content store (installing it from the package's
// Artifacts.toml/StdlibArtifacts.toml if it isn't), returning its path.
// The concrete implementation's download/cache machinery is out of scope
// here — C6 is built against this contract.
type GlobalStore interface {
	EnsureInstalled(spec PackageSpec) (path string, err error)
}
