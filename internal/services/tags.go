package services

import "strings"

// SplitTags turns a comma-joined display string into canonical tags:
// trimmed, non-empty, first occurrence kept when duplicates differ only by
// case.
func SplitTags(text string) []string {
	return canonicalTags(strings.Split(text, ","))
}

// JoinTags is the display form of a tag list. SplitTags(JoinTags(tags))
// returns tags unchanged for any canonical list.
func JoinTags(tags []string) string {
	return strings.Join(tags, ", ")
}

func canonicalTags(items []string) []string {
	tags := make([]string, 0, len(items))
	seen := make(map[string]bool, len(items))
	for _, item := range items {
		for _, part := range strings.Split(item, ",") {
			tag := strings.Join(strings.Fields(part), " ")
			if tag == "" {
				continue
			}
			key := strings.ToLower(tag)
			if seen[key] {
				continue
			}
			seen[key] = true
			tags = append(tags, tag)
		}
	}
	return tags
}
