package normalize

import "github.com/JakeFAU/inat-harvester/internal/harvest"

// Controlled attribute and value codes interpreted by Classify.
const (
	AttributeEvidenceOfPresence = 22
	ValueOrganism               = 24
	ValueAlive                  = 14
	ValueDead                   = 19
)

// ExcludedProjectID marks observations that belong to a project whose
// records are unchecked by default in the review document.
const ExcludedProjectID int64 = 488

// livingStatusByValue maps a controlled value to the living status it sets,
// regardless of attribute.
var livingStatusByValue = map[int]harvest.LivingStatus{
	ValueAlive: harvest.LivingStatusAlive,
	ValueDead:  harvest.LivingStatusDead,
}

// singleSubjectEvidence lists the evidence-of-presence values that describe
// the organism itself; any other value counts as non-organism evidence.
var singleSubjectEvidence = map[int]bool{
	ValueOrganism: true,
}

// Classification is what the annotations of one observation say about it.
type Classification struct {
	LivingStatus        harvest.LivingStatus
	SingleSubject       bool
	NonOrganismEvidence bool
}

// Classify scans annotations once. The last living-status value wins.
func Classify(annotations []harvest.Annotation) Classification {
	c := Classification{LivingStatus: harvest.LivingStatusAlive}
	for _, a := range annotations {
		if a.ControlledValueID == nil {
			continue
		}
		value := *a.ControlledValueID
		if status, ok := livingStatusByValue[value]; ok {
			c.LivingStatus = status
		}
		if a.ControlledAttributeID != AttributeEvidenceOfPresence {
			continue
		}
		if singleSubjectEvidence[value] {
			c.SingleSubject = true
		} else {
			c.NonOrganismEvidence = true
		}
	}
	return c
}

// InExcludedProject reports whether projectIDs contains ExcludedProjectID.
func InExcludedProject(projectIDs []int64) bool {
	for _, id := range projectIDs {
		if id == ExcludedProjectID {
			return true
		}
	}
	return false
}
