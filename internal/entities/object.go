package entities

// Category is the extension-derived classification driving transform selection.
type Category int

const (
	Unsupported Category = iota
	Image
	Document
)

func (c Category) String() string {
	switch c {
	case Image:
		return "image"
	case Document:
		return "document"
	default:
		return "unsupported"
	}
}

// Location addresses one object in the storage substrate.
type Location struct {
	Bucket string `json:"bucket"`
	Key    string `json:"key"`
}

// ChangeEvent describes one completed upload.
type ChangeEvent struct {
	Source Location
	// User metadata of the uploaded object, known once it has been fetched.
	Metadata map[string]string
}

// Object is the content and user metadata fetched from the input store.
type Object struct {
	Location    Location
	Body        []byte
	ContentType string
	Metadata    map[string]string // keys are lowercased by the substrate
}

// TransformRequest is consumed once by exactly one transform; never persisted.
type TransformRequest struct {
	Source      Location
	Content     []byte
	TargetWidth int
	ContentType string
}

// OutputArtifact is the result of a transform, written once to the output store.
type OutputArtifact struct {
	Destination Location
	Body        []byte
	ContentType string
}
