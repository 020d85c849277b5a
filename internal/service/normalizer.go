package service

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"

	"github.com/pushpullleg/fitness-tracker/internal/dto"
)

// ErrRecordInvalid marks a raw record that cannot be canonicalized. Such a
// record is skipped and logged; it never aborts the rest of its document.
var ErrRecordInvalid = errors.New("record failed validation")

// UnknownMember is the sentinel display name for records without a member field.
const UnknownMember = "Unknown"

// fieldAliases maps each canonical field to the raw keys tried in order.
// First match wins. Tolerating a new producer schema means appending its
// key here, not adding per-source configuration.
var fieldAliases = map[string][]string{
	"id":        {"id", "log_id", "logId"},
	"timestamp": {"timestamp", "ts", "time"},
	"member":    {"member", "name", "user"},
	"activity":  {"activity", "exercise", "type"},
	"duration":  {"duration", "duration_min", "minutes"},
	"team":      {"teamName", "team", "device_team"},
}

// documentKeys are the top-level keys under which a source document may expose
// its record list when the document is not itself an array.
var documentKeys = []string{"logs", "activities"}

var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// Normalizer maps heterogeneous raw source records into canonical activity
// records.
type Normalizer struct {
	validator   *validator.Validate
	sanitizer   *bluemonday.Policy
	defaultTeam string
	logger      zerolog.Logger
}

// NewNormalizer constructs a normalizer. Free-text fields are stripped of any
// markup before storage because source documents are untrusted remote input.
func NewNormalizer(validate *validator.Validate, defaultTeam string, logger zerolog.Logger) *Normalizer {
	if defaultTeam == "" {
		defaultTeam = "Fittober"
	}

	return &Normalizer{
		validator:   validate,
		sanitizer:   bluemonday.StrictPolicy(),
		defaultTeam: defaultTeam,
		logger:      logger.With().Str("component", "normalizer").Logger(),
	}
}

// Records extracts the raw record list from a decoded source document. The
// document may itself be an array, or an object exposing the list under one
// of the known top-level keys. Anything else yields zero records.
func (n *Normalizer) Records(doc interface{}) []map[string]interface{} {
	var list []interface{}

	switch typed := doc.(type) {
	case []interface{}:
		list = typed
	case map[string]interface{}:
		for _, key := range documentKeys {
			if nested, ok := typed[key].([]interface{}); ok {
				list = nested
				break
			}
		}
	}

	if list == nil {
		return nil
	}

	records := make([]map[string]interface{}, 0, len(list))
	for _, entry := range list {
		record, ok := entry.(map[string]interface{})
		if !ok {
			n.logger.Warn().Msg("skipping non-object entry in source document")
			continue
		}
		records = append(records, record)
	}

	return records
}

// Canonicalize maps one raw record into its canonical form, or returns an
// error wrapping ErrRecordInvalid when a required field cannot be resolved.
func (n *Normalizer) Canonicalize(raw map[string]interface{}, sourceURL string) (dto.IngestRecord, error) {
	idValue, _ := firstValue(raw, "id")
	logID := toString(idValue)
	if logID == "" {
		return dto.IngestRecord{}, fmt.Errorf("%w: missing log id", ErrRecordInvalid)
	}

	tsValue, ok := firstValue(raw, "timestamp")
	if !ok {
		return dto.IngestRecord{}, fmt.Errorf("%w: missing timestamp", ErrRecordInvalid)
	}
	occurredAt, ok := parseTimestamp(tsValue)
	if !ok {
		return dto.IngestRecord{}, fmt.Errorf("%w: unparseable timestamp %q", ErrRecordInvalid, toString(tsValue))
	}

	memberValue, _ := firstValue(raw, "member")
	member := NormalizeMemberName(n.clean(memberValue))

	activityValue, _ := firstValue(raw, "activity")
	activity := n.clean(activityValue)
	if activity == "" {
		return dto.IngestRecord{}, fmt.Errorf("%w: missing activity", ErrRecordInvalid)
	}

	durValue, ok := firstValue(raw, "duration")
	if !ok {
		return dto.IngestRecord{}, fmt.Errorf("%w: missing duration", ErrRecordInvalid)
	}
	minutes, ok := toMinutes(durValue)
	if !ok {
		return dto.IngestRecord{}, fmt.Errorf("%w: non-numeric duration %q", ErrRecordInvalid, toString(durValue))
	}

	teamValue, _ := firstValue(raw, "team")
	team := n.clean(teamValue)
	if team == "" {
		team = n.defaultTeam
	}

	record := dto.IngestRecord{
		LogID:       logID,
		SourceURL:   sourceURL,
		Member:      member,
		Activity:    activity,
		DurationMin: minutes,
		OccurredAt:  occurredAt,
		Team:        team,
		Raw:         raw,
	}

	if err := n.validator.Struct(record); err != nil {
		return dto.IngestRecord{}, fmt.Errorf("%w: %v", ErrRecordInvalid, err)
	}

	return record, nil
}

func (n *Normalizer) clean(value interface{}) string {
	return strings.TrimSpace(n.sanitizer.Sanitize(toString(value)))
}

// NormalizeMemberName trims the name, lower-cases it, then upper-cases the
// first letter of each word. The transform is idempotent: applying it twice
// yields the same result as once. An empty name maps to the Unknown sentinel.
func NormalizeMemberName(name string) string {
	fields := strings.Fields(strings.ToLower(name))
	if len(fields) == 0 {
		return UnknownMember
	}

	for i, word := range fields {
		first, size := utf8.DecodeRuneInString(word)
		fields[i] = string(unicode.ToUpper(first)) + word[size:]
	}

	return strings.Join(fields, " ")
}

func firstValue(raw map[string]interface{}, field string) (interface{}, bool) {
	for _, key := range fieldAliases[field] {
		if value, ok := raw[key]; ok && value != nil {
			return value, true
		}
	}
	return nil, false
}

func toString(value interface{}) string {
	switch typed := value.(type) {
	case string:
		return strings.TrimSpace(typed)
	case float64:
		return strconv.FormatFloat(typed, 'f', -1, 64)
	case int:
		return strconv.Itoa(typed)
	case int64:
		return strconv.FormatInt(typed, 10)
	default:
		return ""
	}
}

func toMinutes(value interface{}) (int, bool) {
	switch typed := value.(type) {
	case float64:
		return int(typed), true
	case int:
		return typed, true
	case int64:
		return int(typed), true
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(typed), 64)
		if err != nil {
			return 0, false
		}
		return int(parsed), true
	default:
		return 0, false
	}
}

func parseTimestamp(value interface{}) (time.Time, bool) {
	switch typed := value.(type) {
	case string:
		trimmed := strings.TrimSpace(typed)
		for _, layout := range timestampLayouts {
			if ts, err := time.Parse(layout, trimmed); err == nil {
				return ts, true
			}
		}
		return time.Time{}, false
	case float64:
		// Epoch values above ~2001-09 in milliseconds are unambiguous.
		if typed > 1e12 {
			return time.UnixMilli(int64(typed)).UTC(), true
		}
		if typed > 0 {
			return time.Unix(int64(typed), 0).UTC(), true
		}
		return time.Time{}, false
	default:
		return time.Time{}, false
	}
}
