package contacts

import "strings"

// Page is one contiguous slice of the filtered view.
type Page struct {
	Number   int       `json:"page"`
	Count    int       `json:"pages"`
	Size     int       `json:"page_size"`
	Total    int       `json:"total"`
	Contacts []Contact `json:"contacts"`
}

// FilterContacts returns, in order, the contacts whose name or phone
// contains term (case-insensitive) and whose status equals status when
// status is non-empty.
func FilterContacts(all []Contact, term string, status Status) []Contact {
	needle := strings.ToLower(strings.TrimSpace(term))
	out := make([]Contact, 0, len(all))
	for _, c := range all {
		if matches(c, needle, status) {
			out = append(out, c)
		}
	}
	return out
}

func matches(c Contact, needle string, status Status) bool {
	if status != "" && c.Status != status {
		return false
	}
	if needle == "" {
		return true
	}
	return strings.Contains(strings.ToLower(c.Name), needle) ||
		strings.Contains(strings.ToLower(c.Phone), needle)
}

// PageCount is ceil(total/size).
func PageCount(total, size int) int {
	if size <= 0 || total <= 0 {
		return 0
	}
	return (total + size - 1) / size
}

// Paginate returns page n of list, clamping n to [1, PageCount].
func Paginate(list []Contact, n, size int) Page {
	count := PageCount(len(list), size)
	n = max(1, min(n, count))
	p := Page{Number: n, Count: count, Size: size, Total: len(list), Contacts: []Contact{}}
	if count == 0 {
		return p
	}
	start := (n - 1) * size
	end := min(start+size, len(list))
	p.Contacts = append(p.Contacts, list[start:end]...)
	return p
}
