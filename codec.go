package launchd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/google/renameio/v2"
	"howett.net/plist"
)

// Property-list keys consumed and produced by the codec
const (
	KeyLabel                 = "Label"
	KeyProgram               = "Program"
	KeyProgramArguments      = "ProgramArguments"
	KeyRunAtLoad             = "RunAtLoad"
	KeyKeepAlive             = "KeepAlive"
	KeyStartInterval         = "StartInterval"
	KeyStartCalendarInterval = "StartCalendarInterval"
	KeyStandardOutPath       = "StandardOutPath"
	KeyStandardErrorPath     = "StandardErrorPath"
	KeyWorkingDirectory      = "WorkingDirectory"
	KeyEnvironmentVariables  = "EnvironmentVariables"
	KeyDisabled              = "Disabled"

	KeyMinute  = "Minute"
	KeyHour    = "Hour"
	KeyDay     = "Day"
	KeyWeekday = "Weekday"
	KeyMonth   = "Month"
)

// xmlIndent is the indentation used when re-encoding to XML
const xmlIndent = "\t"

type dict = map[string]interface{}

// ParseFile reads a plist job file from disk
func ParseFile(path string) (*JobDefinition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, newOpError(OpParse, path, ioKind(err), err)
	}
	return Parse(data, path)
}

// Parse decodes XML or binary plist bytes into a JobDefinition. name is the
// file path, used for error messages and as the label fallback.
func Parse(data []byte, name string) (*JobDefinition, error) {
	var root interface{}
	if _, err := plist.Unmarshal(data, &root); err != nil {
		return nil, newOpError(OpParse, name, ErrPlist, err)
	}
	d, ok := root.(dict)
	if !ok {
		return nil, newOpError(OpParse, name, ErrPlist, errors.New("root is not a dictionary"))
	}

	label, _ := stringValue(d, KeyLabel)
	if label == "" {
		label = labelFromPath(name)
	}

	def := &JobDefinition{
		Label:                 label,
		Program:               optString(d, KeyProgram),
		ProgramArguments:      stringArray(d, KeyProgramArguments),
		RunAtLoad:             optBool(d, KeyRunAtLoad),
		KeepAlive:             optBool(d, KeyKeepAlive),
		StartInterval:         optUint64(d, KeyStartInterval),
		StartCalendarInterval: calendarIntervals(d),
		StandardOutPath:       optString(d, KeyStandardOutPath),
		StandardErrorPath:     optString(d, KeyStandardErrorPath),
		WorkingDirectory:      optString(d, KeyWorkingDirectory),
		EnvironmentVariables:  stringMap(d, KeyEnvironmentVariables),
		Disabled:              optBool(d, KeyDisabled),
	}

	// A raw capture failure leaves RawXML empty rather than failing the parse
	if raw, err := RawXML(data); err == nil {
		def.RawXML = raw
	}
	return def, nil
}

// labelFromPath derives a label from a file's base name without extension
func labelFromPath(path string) string {
	base := filepath.Base(path)
	if stem := strings.TrimSuffix(base, filepath.Ext(base)); stem != "" {
		return stem
	}
	return base
}

// looksLikeXML reports whether data starts like textual XML
func looksLikeXML(data []byte) bool {
	return bytes.HasPrefix(data, []byte("<?xml")) || bytes.HasPrefix(data, []byte("<"))
}

// RawXML returns the canonical XML text of a plist. XML input is returned
// as-is; anything else is decoded and re-encoded as XML.
func RawXML(data []byte) (string, error) {
	if looksLikeXML(data) {
		return string(data), nil
	}

	var v interface{}
	if _, err := plist.Unmarshal(data, &v); err != nil {
		return "", errors.Wrap(err, "failed to parse plist")
	}
	out, err := plist.MarshalIndent(v, plist.XMLFormat, xmlIndent)
	if err != nil {
		return "", errors.Wrap(err, "failed to serialize plist to XML")
	}
	return string(out), nil
}

// ReadRawXML reads a plist file and returns its XML text
func ReadRawXML(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", newOpError(OpParse, path, ioKind(err), err)
	}
	raw, err := RawXML(data)
	if err != nil {
		return "", newOpError(OpParse, path, ErrPlist, err)
	}
	return raw, nil
}

// Encode serializes a JobDefinition into XML plist bytes. Only present
// optional fields are written; Label is always written; calendar intervals
// are always written as an array.
func Encode(def *JobDefinition) ([]byte, error) {
	if def == nil || def.Label == "" {
		return nil, newOpError(OpWrite, "", ErrPlist, errors.New("label is required"))
	}

	d := dict{KeyLabel: def.Label}
	putString(d, KeyProgram, def.Program)
	if def.ProgramArguments != nil {
		d[KeyProgramArguments] = def.ProgramArguments
	}
	putBool(d, KeyRunAtLoad, def.RunAtLoad)
	putBool(d, KeyKeepAlive, def.KeepAlive)
	if def.StartInterval != nil {
		d[KeyStartInterval] = *def.StartInterval
	}
	if def.StartCalendarInterval != nil {
		arr := make([]interface{}, 0, len(def.StartCalendarInterval))
		for _, ci := range def.StartCalendarInterval {
			arr = append(arr, ci.toDict())
		}
		d[KeyStartCalendarInterval] = arr
	}
	putString(d, KeyStandardOutPath, def.StandardOutPath)
	putString(d, KeyStandardErrorPath, def.StandardErrorPath)
	putString(d, KeyWorkingDirectory, def.WorkingDirectory)
	if def.EnvironmentVariables != nil {
		d[KeyEnvironmentVariables] = def.EnvironmentVariables
	}
	putBool(d, KeyDisabled, def.Disabled)

	out, err := plist.MarshalIndent(d, plist.XMLFormat, xmlIndent)
	if err != nil {
		return nil, newOpError(OpWrite, def.Label, ErrPlist, err)
	}
	return out, nil
}

// WriteFile encodes def and writes it atomically to path
func WriteFile(path string, def *JobDefinition) error {
	data, err := Encode(def)
	if err != nil {
		return err
	}
	if err := renameio.WriteFile(path, data, FileMode); err != nil {
		return newOpError(OpWrite, path, ErrIO, err)
	}
	return nil
}

// ValidateXML checks that text decodes as an XML property list
func ValidateXML(xmlText string) error {
	var v interface{}
	format, err := plist.Unmarshal([]byte(xmlText), &v)
	if err != nil {
		return err
	}
	if format != plist.XMLFormat {
		return errors.Newf("not an XML property list (detected %s)", plist.FormatNames[format])
	}
	return nil
}

// WriteRaw validates xmlText and writes it verbatim to path. Nothing is
// written when validation fails.
func WriteRaw(path, xmlText string) error {
	if err := ValidateXML(xmlText); err != nil {
		return newOpError(OpWrite, path, ErrPlist, errors.Wrap(err, "invalid plist XML"))
	}
	if err := renameio.WriteFile(path, []byte(xmlText), FileMode); err != nil {
		return newOpError(OpWrite, path, ErrIO, err)
	}
	return nil
}

func (ci CalendarInterval) toDict() dict {
	d := dict{}
	putUint32(d, KeyMinute, ci.Minute)
	putUint32(d, KeyHour, ci.Hour)
	putUint32(d, KeyDay, ci.Day)
	putUint32(d, KeyWeekday, ci.Weekday)
	putUint32(d, KeyMonth, ci.Month)
	return d
}

func calendarIntervalFromDict(d dict) CalendarInterval {
	return CalendarInterval{
		Minute:  optUint32(d, KeyMinute),
		Hour:    optUint32(d, KeyHour),
		Day:     optUint32(d, KeyDay),
		Weekday: optUint32(d, KeyWeekday),
		Month:   optUint32(d, KeyMonth),
	}
}

// calendarIntervals normalizes StartCalendarInterval, which may be a single
// dictionary or an array of dictionaries, into an ordered list. An array
// without any dictionaries is treated as absent.
func calendarIntervals(d dict) []CalendarInterval {
	switch v := d[KeyStartCalendarInterval].(type) {
	case dict:
		return []CalendarInterval{calendarIntervalFromDict(v)}
	case []interface{}:
		var out []CalendarInterval
		for _, item := range v {
			if m, ok := item.(dict); ok {
				out = append(out, calendarIntervalFromDict(m))
			}
		}
		if len(out) == 0 {
			return nil
		}
		return out
	default:
		return nil
	}
}

func stringValue(d dict, key string) (string, bool) {
	s, ok := d[key].(string)
	return s, ok
}

func optString(d dict, key string) *string {
	if s, ok := stringValue(d, key); ok {
		return &s
	}
	return nil
}

func optBool(d dict, key string) *bool {
	if b, ok := d[key].(bool); ok {
		return &b
	}
	return nil
}

// toUint64 accepts the integer shapes the plist decoder produces
func toUint64(v interface{}) (uint64, bool) {
	switch n := v.(type) {
	case uint64:
		return n, true
	case int64:
		if n >= 0 {
			return uint64(n), true
		}
	case int:
		if n >= 0 {
			return uint64(n), true
		}
	}
	return 0, false
}

func optUint64(d dict, key string) *uint64 {
	if n, ok := toUint64(d[key]); ok {
		return &n
	}
	return nil
}

func optUint32(d dict, key string) *uint32 {
	n, ok := toUint64(d[key])
	if !ok || n > 1<<32-1 {
		return nil
	}
	v := uint32(n)
	return &v
}

// stringArray keeps the string elements of an array value
func stringArray(d dict, key string) []string {
	arr, ok := d[key].([]interface{})
	if !ok {
		return nil
	}
	out := make([]string, 0, len(arr))
	for _, item := range arr {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// stringMap keeps the string values of a dictionary value
func stringMap(d dict, key string) map[string]string {
	m, ok := d[key].(dict)
	if !ok {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		if s, ok := v.(string); ok {
			out[k] = s
		}
	}
	return out
}

func putString(d dict, key string, v *string) {
	if v != nil {
		d[key] = *v
	}
}

func putBool(d dict, key string, v *bool) {
	if v != nil {
		d[key] = *v
	}
}

func putUint32(d dict, key string, v *uint32) {
	if v != nil {
		d[key] = uint64(*v)
	}
}
