package schema

////////////////////////////////////////////////////////////////////////////////
// TYPES

const (
	SchemaName = "upload"

	// DefaultFieldNameSize is the maximum field name length in bytes applied
	// by the decoder when no limit is configured.
	DefaultFieldNameSize = 100

	// DefaultFieldSize is the maximum field value length in bytes applied
	// by the decoder when no limit is configured.
	DefaultFieldSize = 1 << 20

	// DefaultEncoding and DefaultMimeType are reported for file parts
	// without Content-Transfer-Encoding or Content-Type headers.
	DefaultEncoding = "7bit"
	DefaultMimeType = "text/plain"

	// Metadata keys written alongside blob objects. S3 normalizes metadata
	// keys to lowercase, so we use lowercase for consistency.
	AttrFieldName    = "fieldname"
	AttrOriginalName = "originalname"
)
