package splice

import "fmt"

// Record pairs an input file with the value its extract call produced.
type Record struct {
	File File
	Data interface{}
}

// Content types assigned when a merge result is not already a Blob.
const (
	TypeText   = "text/plain;charset=utf-8"
	TypeBinary = "application/octet-stream"
)

// Blob is the produced artifact.
type Blob struct {
	Data []byte
	Type string
}

// NewBlob creates a Blob with an explicit content type.
func NewBlob(data []byte, contentType string) Blob {
	if contentType == "" {
		contentType = TypeBinary
	}
	return Blob{Data: data, Type: contentType}
}

// TextBlob wraps s as a plain-text Blob.
func TextBlob(s string) Blob {
	return Blob{Data: []byte(s), Type: TypeText}
}

// Size returns the length of the blob content in bytes.
func (b Blob) Size() int {
	return len(b.Data)
}

func (b Blob) String() string {
	return fmt.Sprintf("Blob(%s, %d bytes)", b.Type, len(b.Data))
}
