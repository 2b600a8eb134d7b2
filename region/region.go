// Package region holds the closed set of AWS regions and partitions and
// resolves service endpoints from them.
package region

import "fmt"

// Partition identifies an independently governed deployment of the cloud
// provider.
type Partition string

const (
	PartitionAWS      Partition = "aws"
	PartitionAWSCN    Partition = "aws-cn"
	PartitionAWSUSGov Partition = "aws-us-gov"
	PartitionAWSISO   Partition = "aws-iso"
	PartitionAWSISOB  Partition = "aws-iso-b"
)

// DNSSuffix returns the partition's root domain suffix used to build
// default service endpoints.
func (p Partition) DNSSuffix() string {
	switch p {
	case PartitionAWSCN:
		return "amazonaws.com.cn"
	case PartitionAWSISO:
		return "c2s.ic.gov"
	case PartitionAWSISOB:
		return "sc2s.sgov.gov"
	default:
		// aws, aws-us-gov
		return "amazonaws.com"
	}
}

// Region is a closed known set plus an escape hatch for regions not yet
// enumerated here.
type Region struct {
	name      string
	partition Partition
	other     bool
}

func (r Region) String() string { return r.name }

// Partition returns the partition this region belongs to.
func (r Region) Partition() Partition { return r.partition }

// Other builds an escape-hatch region for a name not in the known table.
// The partition is inferred from the name's prefix, defaulting to aws.
func Other(name string) Region {
	return Region{name: name, partition: partitionForUnknownName(name), other: true}
}

func partitionForUnknownName(name string) Partition {
	switch {
	case hasPrefix(name, "cn-"):
		return PartitionAWSCN
	case hasPrefix(name, "us-gov-"):
		return PartitionAWSUSGov
	case hasPrefix(name, "us-isob-"):
		return PartitionAWSISOB
	case hasPrefix(name, "us-iso-"):
		return PartitionAWSISO
	default:
		return PartitionAWS
	}
}

func hasPrefix(s, prefix string) bool {
	return len(s) >= len(prefix) && s[:len(prefix)] == prefix
}

// knownRegions maps every recognized region name to its partition.
var knownRegions = map[string]Partition{
	"us-east-1": PartitionAWS, "us-east-2": PartitionAWS,
	"us-west-1": PartitionAWS, "us-west-2": PartitionAWS,
	"ca-central-1": PartitionAWS,
	"eu-west-1":    PartitionAWS, "eu-west-2": PartitionAWS, "eu-west-3": PartitionAWS,
	"eu-central-1": PartitionAWS, "eu-north-1": PartitionAWS,
	"ap-east-1": PartitionAWS, "ap-south-1": PartitionAWS,
	"ap-southeast-1": PartitionAWS, "ap-southeast-2": PartitionAWS,
	"ap-northeast-1": PartitionAWS, "ap-northeast-2": PartitionAWS,
	"sa-east-1": PartitionAWS,
	"cn-north-1": PartitionAWSCN, "cn-northwest-1": PartitionAWSCN,
	"us-gov-west-1": PartitionAWSUSGov, "us-gov-east-1": PartitionAWSUSGov,
	"us-iso-east-1": PartitionAWSISO,
	"us-isob-east-1": PartitionAWSISOB,
}

// Named resolves a region by its canonical name, falling back to Other for
// anything not in the table.
func Named(name string) Region {
	if p, ok := knownRegions[name]; ok {
		return Region{name: name, partition: p}
	}
	return Other(name)
}

// ErrNoEndpointForVariant is returned when the requested variant flag set
// has no matching hostname template.
type ErrNoEndpointForVariant struct {
	Service string
	Variant VariantFlags
}

func (e *ErrNoEndpointForVariant) Error() string {
	return fmt.Sprintf("noEndpointForVariant: service %q has no endpoint for variant %s", e.Service, e.Variant)
}

// VariantFlags selects an alternate hostname template.
type VariantFlags struct {
	FIPS      bool
	Dualstack bool
}

func (v VariantFlags) String() string {
	switch {
	case v.FIPS && v.Dualstack:
		return "fips+dualstack"
	case v.FIPS:
		return "fips"
	case v.Dualstack:
		return "dualstack"
	default:
		return "standard"
	}
}
