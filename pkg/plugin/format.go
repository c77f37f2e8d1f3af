package plugin

import (
	"strconv"
	"strings"
	"time"

	"ozzus/checkplugin/pkg/status"
)

// External command names understood by the monitoring server.
const (
	HostCheckCommand    = "PROCESS_HOST_CHECK_RESULT"
	ServiceCheckCommand = "PROCESS_SERVICE_CHECK_RESULT"

	fieldSep = ";"
)

// Info is everything besides the result that goes into an output line.
type Info struct {
	Name       string
	Host       string
	Elapsed    time.Duration
	Thresholds Thresholds
	// At stamps passive lines.
	At time.Time
}

// Format renders r with the formatter of its kind. Unknown kinds render
// as an empty string; validate first.
func Format(info Info, r status.Result) string {
	switch r.Kind() {
	case status.KindActive:
		return FormatActive(info, r)
	case status.KindHost:
		return FormatHostCheck(info, r)
	case status.KindService:
		return FormatServiceCheck(info, r)
	default:
		return ""
	}
}

// FormatActive renders the plugin output line with timing perfdata:
//
//	NAME SEVERITY: message | time=0.5;;;5;10
func FormatActive(info Info, r status.Result) string {
	var b strings.Builder
	b.WriteString(info.Name)
	b.WriteString(" ")
	b.WriteString(string(r.Severity()))
	b.WriteString(": ")
	b.WriteString(r.Message())
	b.WriteString(" | time=")
	b.WriteString(strconv.FormatFloat(info.Elapsed.Seconds(), 'f', -1, 64))
	b.WriteString(";;;")
	b.WriteString(threshold(info.Thresholds.Warning))
	b.WriteString(";")
	b.WriteString(threshold(info.Thresholds.Critical))
	return b.String()
}

// FormatHostCheck renders
//
//	[ts] PROCESS_HOST_CHECK_RESULT;host;code;message
//
// Line breaks in any field are escaped as \n.
func FormatHostCheck(info Info, r status.Result) string {
	return command(info.At, HostCheckCommand, info.Host, strconv.Itoa(r.Code()), r.Message())
}

// FormatServiceCheck renders
//
//	[ts] PROCESS_SERVICE_CHECK_RESULT;host;NAME;code;message
func FormatServiceCheck(info Info, r status.Result) string {
	return command(info.At, ServiceCheckCommand, info.Host, info.Name, strconv.Itoa(r.Code()), r.Message())
}

func command(at time.Time, name string, fields ...string) string {
	for i, f := range fields {
		fields[i] = commandEscaper.Replace(f)
	}
	return "[" + strconv.FormatInt(at.Unix(), 10) + "] " + name + fieldSep + strings.Join(fields, fieldSep)
}

// commandEscaper keeps a passive line on one line of the command file.
// Nagios turns a literal \n in plugin output back into a line break.
var commandEscaper = strings.NewReplacer("\r\n", `\n`, "\n", `\n`, "\r", "")

func threshold(v int) string {
	if v <= 0 {
		return ""
	}
	return strconv.Itoa(v)
}
