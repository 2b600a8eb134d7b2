package region

import (
	"fmt"
	"strings"
)

// ARN is a parsed Amazon Resource Name:
//
//	arn:{partition}:{service}:{region?}:{accountId?}:{resource}
//
// where the final field accepts "resourceId", "resourceType/resourceId", or
// a sixth-colon-separated "resourceType:resourceId" form.
type ARN struct {
	Partition    Partition
	Service      string
	Region       string
	AccountID    string
	ResourceType string
	ResourceID   string
}

// ErrInvalidARN is returned when the input does not parse as an ARN.
type ErrInvalidARN struct {
	Input  string
	Reason string
}

func (e *ErrInvalidARN) Error() string {
	return fmt.Sprintf("invalid ARN %q: %s", e.Input, e.Reason)
}

// ParseARN parses the six-or-seven-colon-field ARN grammar. Account ID, when
// present, must be exactly 12 digits. A region, when present, must belong to
// the named partition.
func ParseARN(s string) (ARN, error) {
	// Split into at most 6 fields: arn, partition, service, region, account, rest.
	fields := strings.SplitN(s, ":", 6)
	if len(fields) != 6 {
		return ARN{}, &ErrInvalidARN{Input: s, Reason: "expected 6 colon-separated fields"}
	}
	if fields[0] != "arn" {
		return ARN{}, &ErrInvalidARN{Input: s, Reason: "missing leading \"arn\" field"}
	}

	partition := Partition(fields[1])
	if !validPartition(partition) {
		return ARN{}, &ErrInvalidARN{Input: s, Reason: "unknown partition"}
	}

	service := fields[2]
	if service == "" {
		return ARN{}, &ErrInvalidARN{Input: s, Reason: "missing service"}
	}

	regionField := fields[3]
	if regionField != "" {
		if reg := Named(regionField); reg.partition != partition {
			return ARN{}, &ErrInvalidARN{Input: s, Reason: "region does not belong to partition"}
		}
	}

	accountField := fields[4]
	if accountField != "" && (len(accountField) != 12 || !allDigits(accountField)) {
		return ARN{}, &ErrInvalidARN{Input: s, Reason: "account id must be exactly 12 digits"}
	}

	resourceField := fields[5]
	if resourceField == "" {
		return ARN{}, &ErrInvalidARN{Input: s, Reason: "missing resource"}
	}

	resourceType, resourceID := splitResource(resourceField)

	return ARN{
		Partition:    partition,
		Service:      service,
		Region:       regionField,
		AccountID:    accountField,
		ResourceType: resourceType,
		ResourceID:   resourceID,
	}, nil
}

// splitResource accepts "resourceId", "resourceType/resourceId", or
// "resourceType:resourceId" (the sixth-colon form, since SplitN above
// leaves any further colons inside fields[5]).
func splitResource(resource string) (resourceType, resourceID string) {
	if i := strings.IndexByte(resource, '/'); i >= 0 {
		return resource[:i], resource[i+1:]
	}
	if i := strings.IndexByte(resource, ':'); i >= 0 {
		return resource[:i], resource[i+1:]
	}
	return "", resource
}

func validPartition(p Partition) bool {
	switch p {
	case PartitionAWS, PartitionAWSCN, PartitionAWSUSGov, PartitionAWSISO, PartitionAWSISOB:
		return true
	default:
		return false
	}
}

func allDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// String renders the ARN back into its canonical wire form.
func (a ARN) String() string {
	resource := a.ResourceID
	if a.ResourceType != "" {
		resource = a.ResourceType + "/" + a.ResourceID
	}
	return fmt.Sprintf("arn:%s:%s:%s:%s:%s", a.Partition, a.Service, a.Region, a.AccountID, resource)
}
