package greenhouse

import "fmt"

// ValidateZoneTree checks that every parent id references an existing
// zone and that following parents never loops.
func ValidateZoneTree(zones []Zone) error {
	parent := make(map[string]*string, len(zones))
	for _, z := range zones {
		parent[z.ID] = z.ParentID
	}

	for _, z := range zones {
		if z.ParentID == nil {
			continue
		}
		if _, ok := parent[*z.ParentID]; !ok {
			return fmt.Errorf("%w: zone %s has parent %q", ErrUnknownZone, z.ID, *z.ParentID)
		}
	}

	// Walk up from each zone; a path longer than the zone count loops.
	for _, z := range zones {
		steps := 0
		for p := z.ParentID; p != nil; p = parent[*p] {
			steps++
			if steps > len(zones) {
				return fmt.Errorf("%w: starting at %s", ErrZoneCycle, z.ID)
			}
		}
	}
	return nil
}

// Descendants returns rootID followed by every zone below it, depth first
// in catalog order. The zones must form a tree.
func Descendants(zones []Zone, rootID string) []string {
	children := make(map[string][]string)
	for _, z := range zones {
		if z.ParentID != nil {
			children[*z.ParentID] = append(children[*z.ParentID], z.ID)
		}
	}

	var out []string
	var walk func(id string)
	walk = func(id string) {
		out = append(out, id)
		for _, c := range children[id] {
			walk(c)
		}
	}
	walk(rootID)
	return out
}

// SensorsInZone returns the sensors placed in rootID or any zone below it.
func SensorsInZone(zones []Zone, sensors []Sensor, rootID string) []Sensor {
	inTree := make(map[string]bool)
	for _, id := range Descendants(zones, rootID) {
		inTree[id] = true
	}

	var out []Sensor
	for _, s := range sensors {
		if s.ZoneID != nil && inTree[*s.ZoneID] {
			out = append(out, s)
		}
	}
	return out
}
