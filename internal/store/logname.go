package store

import (
	"strings"
	"time"

	"chatterbox/internal/domain"
	"chatterbox/internal/protocol/sessionkey"
)

// DeriveLogName returns the transcript log name of a session.
//
//   - ad-hoc with invitees: "<name> hash<digest>", stable for the same set
//   - ad-hoc without invitees: "<name> <date> <first 4 chars of key>"
//   - one-to-one and bridge: the counterpart's canonical handle, or a handle
//     built from the display name when the resolver does not know it
//   - group: the group name
//
// resolver may be nil.
func DeriveLogName(in domain.LogNameInput, resolver domain.HandleResolver, now time.Time) string {
	var name string
	switch in.Kind {
	case domain.KindAdHoc:
		digest := sessionkey.AdHocMatchDigest(in.InitialTargets)
		if digest != sessionkey.NoMatch {
			name = in.Name + " hash" + digest.String()
		} else {
			name = in.Name + " " + now.Format("20060102") + " " + in.Key.String()[:4]
		}
	case domain.KindOneToOne, domain.KindBridge:
		if resolver != nil {
			if handle, ok := resolver.CanonicalHandle(in.Other); ok && handle != "" {
				name = handle
				break
			}
		}
		name = BuildUsername(in.Name)
	case domain.KindGroup:
		name = in.Name
	default:
		name = in.Name
	}
	return sanitizeLogName(name)
}

// BuildUsername turns a display name into an account handle:
// "First Last" becomes "first.last" and the legacy "Resident" surname is
// dropped.
func BuildUsername(display string) string {
	fields := strings.Fields(display)
	if len(fields) == 2 && strings.EqualFold(fields[1], "Resident") {
		fields = fields[:1]
	}
	return strings.ToLower(strings.Join(fields, "."))
}

// sanitizeLogName replaces characters that are unsafe in file names.
func sanitizeLogName(name string) string {
	name = strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|', 0:
			return '_'
		}
		return r
	}, strings.TrimSpace(name))
	if name == "" || name == "." || name == ".." {
		return "_"
	}
	return name
}

// StaticResolver resolves canonical handles from a fixed table.
type StaticResolver map[domain.ParticipantID]string

var _ domain.HandleResolver = StaticResolver(nil)

func (r StaticResolver) CanonicalHandle(id domain.ParticipantID) (string, bool) {
	h, ok := r[id]
	return h, ok
}
