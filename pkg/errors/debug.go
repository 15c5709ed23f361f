package errors

import (
	"errors"
	"fmt"
)

const maxChainDepth = 8

// ErrorDump is the log friendly view of an error chain.
type ErrorDump struct {
	TopMessage string   `json:"top_message"`
	Code       Code     `json:"code,omitempty"`
	HTTPStatus int      `json:"http_status"`
	Chain      []string `json:"chain,omitempty"`
}

// Dump walks err's Unwrap chain, stopping after maxChainDepth links.
func Dump(err error) ErrorDump {
	if err == nil {
		return ErrorDump{}
	}

	d := ErrorDump{TopMessage: err.Error(), HTTPStatus: MetadataFor(CodeInternal).HTTPStatus}
	if typed := As(err); typed != nil {
		d.Code = typed.Code()
		d.HTTPStatus = MetadataFor(typed.Code()).HTTPStatus
	}
	for e := err; e != nil && len(d.Chain) < maxChainDepth; e = errors.Unwrap(e) {
		d.Chain = append(d.Chain, fmt.Sprintf("%T: %v", e, e))
	}
	return d
}
