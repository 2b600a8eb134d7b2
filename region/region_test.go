package region

import "testing"

func TestNamedKnownRegion(t *testing.T) {
	r := Named("cn-north-1")
	if r.Partition() != PartitionAWSCN {
		t.Fatalf("expected aws-cn partition, got %s", r.Partition())
	}
	if r.Partition().DNSSuffix() != "amazonaws.com.cn" {
		t.Fatalf("unexpected dns suffix %s", r.Partition().DNSSuffix())
	}
}

func TestOtherEscapeHatch(t *testing.T) {
	r := Other("us-gov-somewhere-9")
	if r.Partition() != PartitionAWSUSGov {
		t.Fatalf("expected us-gov partition inferred from prefix, got %s", r.Partition())
	}
}

func TestEndpointResolverDefault(t *testing.T) {
	res := EndpointResolver{Service: "dynamodb"}
	ep, err := res.Resolve(Named("us-east-1"), VariantFlags{})
	if err != nil {
		t.Fatal(err)
	}
	want := "https://dynamodb.us-east-1.amazonaws.com"
	if ep != want {
		t.Fatalf("got %s want %s", ep, want)
	}
}

func TestEndpointResolverOverride(t *testing.T) {
	res := EndpointResolver{Service: "s3", Override: "https://custom.example.com"}
	ep, err := res.Resolve(Named("us-east-1"), VariantFlags{})
	if err != nil || ep != "https://custom.example.com" {
		t.Fatalf("got %s err %v", ep, err)
	}
}

func TestEndpointResolverPerRegion(t *testing.T) {
	res := EndpointResolver{
		Service:   "s3",
		PerRegion: map[string]string{"us-west-2": "https://s3-us-west-2.example.com"},
	}
	ep, err := res.Resolve(Named("us-west-2"), VariantFlags{})
	if err != nil || ep != "https://s3-us-west-2.example.com" {
		t.Fatalf("got %s err %v", ep, err)
	}
}

func TestEndpointResolverGlobal(t *testing.T) {
	res := EndpointResolver{Service: "iam", IsGlobal: true, GlobalEndpoint: "https://iam.amazonaws.com"}
	ep, err := res.Resolve(Named("us-east-1"), VariantFlags{})
	if err != nil || ep != "https://iam.amazonaws.com" {
		t.Fatalf("got %s err %v", ep, err)
	}
}

func TestEndpointResolverVariant(t *testing.T) {
	res := EndpointResolver{
		Service: "s3",
		Variants: VariantTable{
			{FIPS: true}: "https://{service}-fips.{region}.amazonaws.com",
		},
	}
	ep, err := res.Resolve(Named("us-east-1"), VariantFlags{FIPS: true})
	if err != nil {
		t.Fatal(err)
	}
	want := "https://s3-fips.us-east-1.amazonaws.com"
	if ep != want {
		t.Fatalf("got %s want %s", ep, want)
	}
}

func TestEndpointResolverVariantMissing(t *testing.T) {
	res := EndpointResolver{Service: "s3"}
	_, err := res.Resolve(Named("us-east-1"), VariantFlags{Dualstack: true})
	if err == nil {
		t.Fatal("expected noEndpointForVariant error")
	}
	var target *ErrNoEndpointForVariant
	if !asErr(err, &target) {
		t.Fatalf("unexpected error type: %v", err)
	}
}

func asErr(err error, target **ErrNoEndpointForVariant) bool {
	e, ok := err.(*ErrNoEndpointForVariant)
	if ok {
		*target = e
	}
	return ok
}

func TestParseARNBasic(t *testing.T) {
	a, err := ParseARN("arn:aws:s3:::my-bucket")
	if err != nil {
		t.Fatal(err)
	}
	if a.Service != "s3" || a.ResourceID != "my-bucket" {
		t.Fatalf("unexpected parse: %+v", a)
	}
}

func TestParseARNResourceTypeSlash(t *testing.T) {
	a, err := ParseARN("arn:aws:iam::123456789012:role/my-role")
	if err != nil {
		t.Fatal(err)
	}
	if a.ResourceType != "role" || a.ResourceID != "my-role" || a.AccountID != "123456789012" {
		t.Fatalf("unexpected parse: %+v", a)
	}
}

func TestParseARNResourceTypeColon(t *testing.T) {
	a, err := ParseARN("arn:aws:sns:us-east-1:123456789012:topic:my-topic")
	if err != nil {
		t.Fatal(err)
	}
	if a.ResourceType != "topic" || a.ResourceID != "my-topic" {
		t.Fatalf("unexpected parse: %+v", a)
	}
}

func TestParseARNBadAccountID(t *testing.T) {
	_, err := ParseARN("arn:aws:iam::notanumber:role/x")
	if err == nil {
		t.Fatal("expected error for non-digit account id")
	}
}

func TestParseARNAccountIDWrongLength(t *testing.T) {
	_, err := ParseARN("arn:aws:iam::12345:role/x")
	if err == nil {
		t.Fatal("expected error for short account id")
	}
	_, err = ParseARN("arn:aws:iam::1234567890123456:role/x")
	if err == nil {
		t.Fatal("expected error for long account id")
	}
}

func TestParseARNRegionPartitionMismatch(t *testing.T) {
	_, err := ParseARN("arn:aws:s3:cn-north-1::bucket")
	if err == nil {
		t.Fatal("expected error for region/partition mismatch")
	}
}
