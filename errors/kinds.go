package errors

// Kind sentinels for the error taxonomy. Call sites attach these with
// Wrap/Wrapf so callers can discriminate failure classes with errors.Is
// without depending on concrete error types.
var (
	ErrInvalidTriplet              = New("invalid triplet")
	ErrInvalidKey                  = New("invalid extension key")
	ErrImpossibleABI               = New("no compiler build satisfies the requested ABI")
	ErrShardUnregistered           = New("shard not registered in the catalog")
	ErrShardArtifactMissing        = New("shard artifact missing from the content store")
	ErrMountFailed                 = New("mount failed")
	ErrUnmountFailed               = New("unmount failed")
	ErrSDKNotAccepted              = New("SDK EULA not accepted")
	ErrArchiveFormatUnknown        = New("unknown archive format")
	ErrOutputExists                = New("output artifact already exists")
	ErrDependencyResolutionFailed  = New("dependency resolution failed")
	ErrSymlinkConflict             = New("symlink destination occupied by another artifact")
	ErrStdlibResolutionFailed      = New("stdlib artifact resolution failed")
)
