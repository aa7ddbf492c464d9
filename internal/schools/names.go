package schools

import (
	"sort"
	"strings"
)

// RegionPrefixes are the metropolitan and provincial prefixes that school
// names may carry. They are checked in order and the first match wins.
var RegionPrefixes = []string{
	"서울", "부산", "대구", "인천", "광주", "대전", "울산", "세종",
	"경기", "강원", "충북", "충남", "전북", "전남", "경북", "경남", "제주",
}

// SplitRegionPrefix returns the region prefix of name and the remainder.
// ok is false when name has no region prefix.
func SplitRegionPrefix(name string) (prefix, rest string, ok bool) {
	for _, p := range RegionPrefixes {
		if strings.HasPrefix(name, p) {
			return p, name[len(p):], true
		}
	}
	return "", name, false
}

// StripRegionPrefix removes the region prefix from name, if any.
func StripRegionPrefix(name string) string {
	_, rest, _ := SplitRegionPrefix(name)
	return rest
}

// Duplicate groups region-prefixed names that collide once the prefix is
// removed.
type Duplicate struct {
	Unprefixed string
	Names      []string
}

// FindDuplicates reports every unprefixed name shared by two or more
// region-prefixed school names. Names without a region prefix are ignored.
// Groups are sorted by unprefixed name; names keep their input order and
// repeated inputs appear once.
func FindDuplicates(names []string) []Duplicate {
	groups := make(map[string][]string)
	for _, name := range names {
		_, rest, ok := SplitRegionPrefix(name)
		if !ok {
			continue
		}
		if contains(groups[rest], name) {
			continue
		}
		groups[rest] = append(groups[rest], name)
	}

	var dups []Duplicate
	for rest, group := range groups {
		if len(group) > 1 {
			dups = append(dups, Duplicate{Unprefixed: rest, Names: group})
		}
	}
	sort.Slice(dups, func(i, j int) bool {
		return dups[i].Unprefixed < dups[j].Unprefixed
	})
	return dups
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
