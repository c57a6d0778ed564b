package mongoerr

import (
	"encoding/json"

	"go.mongodb.org/mongo-driver/v2/mongo"
)

// Details holds the collection and index of the structured dump for
// database errors; the offending key is not included.
type Details struct {
	Collection string `json:"collection,omitempty"`
	Index      string `json:"index,omitempty"`
}

// Info is the structured JSON form of a driver error, printed to the user as
// `{"error": ...}` (spec.md §7 "User-visible shape").
type Info struct {
	Type    string   `json:"type,omitempty"`
	Code    int32    `json:"code,omitempty"`
	Name    string   `json:"name,omitempty"`
	Message string   `json:"message,omitempty"`
	Details *Details `json:"details,omitempty"`
}

// knownCodes maps server error codes to the short names spec.md §7 calls out.
var knownCodes = map[int32]string{
	11000: "DuplicateKey",
	13:    "Unauthorized",
	18:    "AuthenticationFailed",
	26:    "NamespaceNotFound",
	50:    "MaxTimeMSExpired",
	121:   "DocumentValidationFailure",
}

func codeName(code int32) string {
	if name, ok := knownCodes[code]; ok {
		return name
	}
	return ""
}

// ExtractInfo pulls structured information out of a driver error using the
// driver's typed error structures, falling back to the raw message when the
// error doesn't match a known shape.
func ExtractInfo(err error) Info {
	var info Info

	var we mongo.WriteException
	var ce mongo.CommandError
	var bwe mongo.BulkWriteException

	switch {
	case asWriteException(err, &we):
		info.Type = "mongo.write_error"
		if len(we.WriteErrors) > 0 {
			first := we.WriteErrors[0]
			info.Code = int32(first.Code)
			info.Message = first.Message
			info.Name = codeName(info.Code)
		} else if we.WriteConcernError != nil {
			info.Code = int32(we.WriteConcernError.Code)
			info.Message = we.WriteConcernError.Message
			info.Name = codeName(info.Code)
		}
	case asCommandError(err, &ce):
		info.Type = "mongo.command_error"
		info.Code = ce.Code
		info.Message = ce.Message
		info.Name = codeName(ce.Code)
	case asBulkWriteException(err, &bwe):
		info.Type = "mongo.bulk_write_error"
		if len(bwe.WriteErrors) > 0 {
			first := bwe.WriteErrors[0]
			info.Code = int32(first.Code)
			info.Message = first.Message
			info.Name = codeName(info.Code)
		}
	default:
		info.Type = "mongo.error"
		info.Message = err.Error()
	}
	return info
}

func asWriteException(err error, out *mongo.WriteException) bool {
	we, ok := err.(mongo.WriteException)
	if ok {
		*out = we
	}
	return ok
}

func asCommandError(err error, out *mongo.CommandError) bool {
	ce, ok := err.(mongo.CommandError)
	if ok {
		*out = ce
	}
	return ok
}

func asBulkWriteException(err error, out *mongo.BulkWriteException) bool {
	bwe, ok := err.(mongo.BulkWriteException)
	if ok {
		*out = bwe
	}
	return ok
}

// FormatDatabaseError renders a driver error as the pretty `{"error": ...}`
// JSON block spec.md §7 specifies for Kind=Database errors.
func FormatDatabaseError(err error) string {
	info := ExtractInfo(err)
	wrapper := map[string]Info{"error": info}
	out, marshalErr := json.MarshalIndent(wrapper, "", "  ")
	if marshalErr != nil {
		return "Error: database: " + err.Error()
	}
	return string(out)
}

// Database wraps a raw driver error into the tagged Error type.
func Database(err error) *Error {
	info := ExtractInfo(err)
	return &Error{Kind: KindDatabase, Message: info.Message, Cause: err}
}
