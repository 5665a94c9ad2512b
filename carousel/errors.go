package carousel

// ProcessError represents a specific type of processing-run failure.
type ProcessError struct {
	Type    ProcessErrorType
	Message string
	Err     error
}

// ProcessErrorType categorizes processing failures.
type ProcessErrorType int

const (
	// ErrTypeDecode indicates the source bytes could not be decoded into a raster.
	ErrTypeDecode ProcessErrorType = iota
	// ErrTypeSurface indicates no drawing surface could be created
	// (degenerate layout or output dimensions).
	ErrTypeSurface
	// ErrTypeEncode indicates compression produced no usable output.
	ErrTypeEncode
	// ErrTypeOutOfBounds indicates the crop rectangle cannot be repaired
	// against the source image.
	ErrTypeOutOfBounds
	// ErrTypeInvalidPanelCount indicates the layout requested fewer than one panel.
	ErrTypeInvalidPanelCount
	// ErrTypeSizeLimit indicates a lossless encode exceeded the size ceiling.
	// Recoverable: the engine falls back to a lossy encode and reports the
	// produced format instead of returning this error.
	ErrTypeSizeLimit
)

func (e *ProcessError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *ProcessError) Unwrap() error {
	return e.Err
}
