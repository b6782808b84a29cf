package pipeline

import (
	"encoding/json"
	"net/url"
	"slices"
	"strconv"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"github.com/samber/lo"

	"github.com/ravishrisanjay/AWS-serverless-processor/internal/entities"
	ierr "github.com/ravishrisanjay/AWS-serverless-processor/internal/errors"
)

const (
	DefaultWidth = 800
	resizeKey    = "resize"
)

// Envelope is one queue delivery carrying a serialized storage notification.
type Envelope struct {
	ID   string
	Body string
}

// probe only tells notification payloads apart from anything else the queue
// might carry, such as the s3:TestEvent sent when notifications are set up.
type probe struct {
	Records json.RawMessage `json:"Records"`
}

// ParseEnvelope turns a queue body into a ChangeEvent for its first record.
// Bodies without a Records field are reported as ErrNotActionable; anything
// else that does not describe an object is ErrValidation.
func ParseEnvelope(body string) (entities.ChangeEvent, error) {
	var p probe
	if err := json.Unmarshal([]byte(body), &p); err != nil {
		return entities.ChangeEvent{}, ierr.WithError(err).
			WithMessage("envelope body is not JSON").
			Mark(ierr.ErrValidation)
	}
	if len(p.Records) == 0 || string(p.Records) == "null" {
		return entities.ChangeEvent{}, ierr.NewError("no Records in payload").
			Mark(ierr.ErrNotActionable)
	}

	var evt events.S3Event
	if err := json.Unmarshal([]byte(body), &evt); err != nil {
		return entities.ChangeEvent{}, ierr.WithError(err).
			WithMessage("malformed storage notification").
			Mark(ierr.ErrValidation)
	}
	if len(evt.Records) == 0 {
		return entities.ChangeEvent{}, ierr.NewError("notification has an empty Records list").
			Mark(ierr.ErrValidation)
	}

	rec := evt.Records[0].S3
	if rec.Bucket.Name == "" || rec.Object.Key == "" {
		return entities.ChangeEvent{}, ierr.NewError("record is missing bucket or key").
			Mark(ierr.ErrValidation)
	}

	// keys arrive form-encoded, '+' stands for a space
	key, err := url.QueryUnescape(rec.Object.Key)
	if err != nil {
		return entities.ChangeEvent{}, ierr.WithError(err).
			WithMessagef("undecodable key %q", rec.Object.Key).
			Mark(ierr.ErrValidation)
	}

	return entities.ChangeEvent{
		Source: entities.Location{Bucket: rec.Bucket.Name, Key: key},
	}, nil
}

// ResolveWidth reads the resize metadata field. The exact lowercase key wins;
// otherwise the first case-insensitive match in sorted key order is used.
// Missing, unparseable or non-positive values resolve to def.
func ResolveWidth(metadata map[string]string, def int) int {
	if def <= 0 {
		def = DefaultWidth
	}

	v, ok := metadata[resizeKey]
	if !ok {
		keys := lo.Filter(lo.Keys(metadata), func(k string, _ int) bool {
			return strings.EqualFold(k, resizeKey)
		})
		if len(keys) == 0 {
			return def
		}
		slices.Sort(keys)
		v = metadata[keys[0]]
	}

	w, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || w <= 0 {
		return def
	}
	return w
}
