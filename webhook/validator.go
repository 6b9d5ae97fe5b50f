package webhook

import (
	"fmt"
	"mime"
	"strconv"
	"strings"

	"github.com/marcelsud/commit-webhooks/providers"
)

// Validation is the result of the structural checks. Errors are fatal, warnings are not.
type Validation struct {
	Metadata DeliveryMetadata
	Missing  []string // required headers that were absent, by configured name
	Errors   []string
	Warnings []string
}

// Valid reports whether the request may proceed
func (v Validation) Valid() bool {
	return len(v.Errors) == 0
}

// Validate runs every structural check against the provider's requirements.
// All checks run, so a caller sees every problem at once.
func Validate(p *providers.Provider, req InboundRequest) Validation {
	var v Validation

	if err := checkContentType(req.ContentType); err != nil {
		v.Errors = append(v.Errors, err.Error())
	}

	switch {
	case req.ContentLength == 0:
		v.Errors = append(v.Errors, "request body is empty")
	case req.ContentLength > p.MaxBodyBytes:
		v.Errors = append(v.Errors, fmt.Sprintf("content length %d exceeds maximum of %d bytes", req.ContentLength, p.MaxBodyBytes))
	}

	for _, name := range p.RequiredHeaders() {
		if strings.TrimSpace(req.Header.Get(name)) == "" {
			v.Missing = append(v.Missing, name)
			v.Errors = append(v.Errors, "missing required header: "+name)
		}
	}

	v.Metadata.Signature = req.Header.Get(p.SignatureHeader)
	if p.IDHeader != "" {
		v.Metadata.DeliveryID = strings.TrimSpace(req.Header.Get(p.IDHeader))
	}
	if p.Scheme.Timestamped() {
		raw := strings.TrimSpace(req.Header.Get(p.TimestampHeader))
		v.Metadata.RawTimestamp = raw
		if raw != "" {
			ts, err := strconv.ParseInt(raw, 10, 64)
			if err != nil {
				v.Errors = append(v.Errors, fmt.Sprintf("header %s must be unix seconds", p.TimestampHeader))
			}
			v.Metadata.Timestamp = ts
		}
	}

	if p.UserAgent != "" && !strings.Contains(req.UserAgent, p.UserAgent) {
		v.Warnings = append(v.Warnings, fmt.Sprintf("unexpected user agent %q", req.UserAgent))
	}

	return v
}

func checkContentType(contentType string) error {
	if contentType == "" {
		return fmt.Errorf("content type is required")
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return fmt.Errorf("invalid content type %q", contentType)
	}
	if mediaType != "application/json" && !strings.HasSuffix(mediaType, "+json") {
		return fmt.Errorf("content type must be JSON, got %s", mediaType)
	}
	return nil
}
