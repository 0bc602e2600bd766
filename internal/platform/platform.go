// Package platform identifies which ATS (applicant tracking system) serves a
// job application URL. Detection is pure string matching on the parsed URL;
// rerunning it on the same URL always yields the same result.
package platform

import (
	"net/url"
	"strings"
)

// Platform represents a known job board platform.
type Platform string

const (
	// Lever is the Lever ATS platform
	Lever Platform = "lever"
	// Greenhouse is the Greenhouse ATS platform
	Greenhouse Platform = "greenhouse"
	// Ashby is the Ashby ATS platform
	Ashby Platform = "ashby"
	// Workday is the Workday ATS platform
	Workday Platform = "workday"
	// Unknown is an unrecognized platform. Jobs on unknown platforms can be
	// queued and reviewed but not filled or submitted.
	Unknown Platform = "unknown"
)

// rule matches a URL by host suffix and optional path prefix.
// Rules are checked in order; first match wins.
type rule struct {
	hostSuffix string
	pathPrefix string
	platform   Platform
}

var rules = []rule{
	{"jobs.lever.co", "", Lever},
	{"jobs.eu.lever.co", "", Lever},
	{"lever.co", "", Lever},
	{"boards.greenhouse.io", "", Greenhouse},
	{"job-boards.greenhouse.io", "", Greenhouse},
	{"greenhouse.io", "", Greenhouse},
	{"jobs.ashbyhq.com", "", Ashby},
	{"ashbyhq.com", "", Ashby},
	{"myworkdayjobs.com", "", Workday},
	{"workday.com", "", Workday},
}

// Detect identifies the job board platform from a URL.
// Unparseable URLs and unmatched hosts map to Unknown, not an error.
func Detect(rawURL string) Platform {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return Unknown
	}

	host := strings.ToLower(parsed.Hostname())
	path := parsed.EscapedPath()

	for _, r := range rules {
		if host != r.hostSuffix && !strings.HasSuffix(host, "."+r.hostSuffix) {
			continue
		}
		if r.pathPrefix != "" && !strings.HasPrefix(path, r.pathPrefix) {
			continue
		}
		return r.platform
	}
	return Unknown
}

// All returns every platform a handler can be registered for.
func All() []Platform {
	return []Platform{Lever, Greenhouse, Ashby, Workday}
}

// Valid reports whether p is one of the closed set of platform values.
func Valid(p Platform) bool {
	switch p {
	case Lever, Greenhouse, Ashby, Workday, Unknown:
		return true
	}
	return false
}
