package catalog

import (
	"strconv"
	"strings"
	"time"

	"github.com/mentorlink/mentordex/internal/domain/mentor"
)

// listReturnFields are the hash fields fetched for detail reads; the
// embedding blob stays in the store.
var listReturnFields = []string{
	"nickname", "company_name", "verified",
	"rating_avg", "rating_count", "responded_count", "accepted_count",
	"skills", "jobs", "introduction", "last_active_at",
}

// detailFromFields maps a mentor hash onto mentor.Detail. Unknown or
// malformed fields degrade to zero values rather than failing the read.
func detailFromFields(id int64, fields map[string]string) mentor.Detail {
	d := mentor.Detail{ID: id}
	d.Nickname = fields["nickname"]
	d.CompanyName = fields["company_name"]
	d.Verified = fields["verified"] == "1" || fields["verified"] == "true"
	d.RatingAvg = parseFloat(fields["rating_avg"])
	d.RatingCount = parseInt(fields["rating_count"])
	d.RespondedCount = parseInt(fields["responded_count"])
	d.AcceptedCount = parseInt(fields["accepted_count"])
	d.Skills = splitTags(fields["skills"])
	d.Jobs = splitTags(fields["jobs"])
	d.Introduction = fields["introduction"]
	if ts := fields["last_active_at"]; ts != "" {
		if t, err := time.Parse(time.RFC3339, ts); err == nil {
			d.LastActiveAt = &t
		}
	}
	return d
}

func idFromKey(key string) int64 {
	raw := strings.TrimPrefix(key, keyPrefix)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0
	}
	return id
}

func splitTags(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if v := strings.TrimSpace(p); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func parseFloat(s string) float64 {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return f
}

func parseInt(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}
