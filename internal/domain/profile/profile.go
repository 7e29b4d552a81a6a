// Package profile models the requester side of a mentor search: job and
// skill labels, free-text introduction, and the structured conditions a
// conversational caller extracts from a message.
package profile

import (
	"fmt"
	"strings"
)

// LabelSet is an ordered, case-insensitive set of labels (jobs or skills).
// Matching is case-insensitive; rendering preserves the original casing and
// insertion order so query texts stay deterministic.
type LabelSet struct {
	values []string
	index  map[string]struct{}
}

// NewLabelSet creates a label set, dropping blanks and case-insensitive duplicates.
func NewLabelSet(items ...string) LabelSet {
	s := LabelSet{index: make(map[string]struct{}, len(items))}
	for _, item := range items {
		v := strings.TrimSpace(item)
		if v == "" {
			continue
		}
		key := strings.ToLower(v)
		if _, ok := s.index[key]; ok {
			continue
		}
		s.index[key] = struct{}{}
		s.values = append(s.values, v)
	}
	return s
}

// Contains reports case-insensitive membership.
func (s LabelSet) Contains(label string) bool {
	_, ok := s.index[strings.ToLower(strings.TrimSpace(label))]
	return ok
}

// Intersects reports whether the two sets share at least one label.
func (s LabelSet) Intersects(other LabelSet) bool {
	return s.IntersectionSize(other) > 0
}

// IntersectionSize counts labels present in both sets.
func (s LabelSet) IntersectionSize(other LabelSet) int {
	small, large := s, other
	if len(large.index) < len(small.index) {
		small, large = large, small
	}
	n := 0
	for key := range small.index {
		if _, ok := large.index[key]; ok {
			n++
		}
	}
	return n
}

// Values returns the labels in insertion order.
func (s LabelSet) Values() []string { return s.values }

// Len returns the number of labels.
func (s LabelSet) Len() int { return len(s.values) }

// IsEmpty reports whether the set has no labels.
func (s LabelSet) IsEmpty() bool { return len(s.values) == 0 }

// Join renders the labels in insertion order.
func (s LabelSet) Join(sep string) string { return strings.Join(s.values, sep) }

// Attributes is an immutable snapshot of a requester (or mentor) profile.
type Attributes struct {
	jobs         LabelSet
	skills       LabelSet
	introduction string
}

// NewAttributes creates a profile attributes snapshot.
func NewAttributes(jobs, skills []string, introduction string) Attributes {
	return Attributes{
		jobs:         NewLabelSet(jobs...),
		skills:       NewLabelSet(skills...),
		introduction: strings.TrimSpace(introduction),
	}
}

// Jobs returns the job label set.
func (a Attributes) Jobs() LabelSet { return a.jobs }

// Skills returns the skill label set.
func (a Attributes) Skills() LabelSet { return a.skills }

// Introduction returns the free-text introduction.
func (a Attributes) Introduction() string { return a.introduction }

// IsEmpty reports whether the profile has no usable attributes at all.
func (a Attributes) IsEmpty() bool {
	return a.jobs.IsEmpty() && a.skills.IsEmpty() && a.introduction == ""
}

// QueryText renders the profile as ordered labeled segments for embedding,
// e.g. "직무: 백엔드. 기술스택: Go, gRPC. 자기소개: ...". Returns "" when no
// segment is non-empty; callers must treat that as an insufficient profile,
// not as an empty query.
func (a Attributes) QueryText() string {
	var parts []string
	if !a.jobs.IsEmpty() {
		parts = append(parts, "직무: "+a.jobs.Join(", "))
	}
	if !a.skills.IsEmpty() {
		parts = append(parts, "기술스택: "+a.skills.Join(", "))
	}
	if a.introduction != "" {
		parts = append(parts, "자기소개: "+a.introduction)
	}
	return strings.Join(parts, ". ")
}

// Conditions are the structured search conditions extracted from a
// conversational request. Unlike Attributes they carry optional context
// fields (experience, domain, region) that only shape the query text.
type Conditions struct {
	Job             string
	Skills          []string
	ExperienceYears *int
	Domain          string
	Region          string
	CompanyType     string
	Keywords        []string
}

// QueryText renders the conditions as ordered labeled segments,
// e.g. "직무: 백엔드. 기술스택: Spring, MSA. 경력: 3년". Returns "" when
// every field is empty.
func (c Conditions) QueryText() string {
	var parts []string
	if c.Job != "" {
		parts = append(parts, "직무: "+c.Job)
	}
	if skills := NewLabelSet(c.Skills...); !skills.IsEmpty() {
		parts = append(parts, "기술스택: "+skills.Join(", "))
	}
	if c.ExperienceYears != nil {
		parts = append(parts, fmt.Sprintf("경력: %d년", *c.ExperienceYears))
	}
	if c.Domain != "" {
		parts = append(parts, "도메인: "+c.Domain)
	}
	if c.Region != "" {
		parts = append(parts, "지역: "+c.Region)
	}
	if c.CompanyType != "" {
		parts = append(parts, "회사유형: "+c.CompanyType)
	}
	if keywords := NewLabelSet(c.Keywords...); !keywords.IsEmpty() {
		parts = append(parts, "키워드: "+keywords.Join(", "))
	}
	return strings.Join(parts, ". ")
}

// Attributes projects the matchable part of the conditions (job + skills)
// onto a profile snapshot for filter and rerank matching.
func (c Conditions) Attributes() Attributes {
	var jobs []string
	if c.Job != "" {
		jobs = []string{c.Job}
	}
	return NewAttributes(jobs, c.Skills, "")
}

// MissingFields lists the condition fields that are absent, in the order a
// caller should ask for them. Used to hint the requester toward a narrower
// query when too many fields are open.
func (c Conditions) MissingFields() []string {
	var missing []string
	if c.Job == "" {
		missing = append(missing, "직무")
	}
	if len(c.Skills) == 0 {
		missing = append(missing, "기술스택")
	}
	if c.ExperienceYears == nil {
		missing = append(missing, "경력")
	}
	if c.Domain == "" {
		missing = append(missing, "도메인")
	}
	return missing
}
