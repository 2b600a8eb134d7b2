package protocol

import "testing"

func TestEncodeFormOrdering(t *testing.T) {
	codec := DefaultCodec{}
	form, err := codec.EncodeForm(nil, map[string]string{"b": "2", "a": "1"}, false)
	if err != nil {
		t.Fatal(err)
	}
	if form != "a=1&b=2" {
		t.Fatalf("got %q", form)
	}
}

func TestEncodeFormStruct(t *testing.T) {
	type input struct {
		Bucket string `form:"Bucket"`
		Key    string `form:"Key"`
	}
	codec := DefaultCodec{}
	form, err := codec.EncodeForm(input{Bucket: "b", Key: "k"},
		map[string]string{"Action": "GetObject", "Version": "2011-06-15"}, false)
	if err != nil {
		t.Fatal(err)
	}
	want := "Action=GetObject&Bucket=b&Key=k&Version=2011-06-15"
	if form != want {
		t.Fatalf("got %q want %q", form, want)
	}
}

func TestEncodeFormAnonymousSTS(t *testing.T) {
	codec := DefaultCodec{}
	form, err := codec.EncodeForm(nil, map[string]string{
		"Action": "GetCallerIdentity", "Version": "2011-06-15",
	}, false)
	if err != nil {
		t.Fatal(err)
	}
	if form != "Action=GetCallerIdentity&Version=2011-06-15" {
		t.Fatalf("got %q", form)
	}
}

func TestDialectFlags(t *testing.T) {
	if !DialectQuery.IsForm() || !DialectEC2.IsForm() {
		t.Fatal("query/ec2 should be form dialects")
	}
	if DialectJSON.IsForm() || DialectRestJSON.IsForm() {
		t.Fatal("json dialects should not be form")
	}
	if !DialectRestXML.IsXML() || !DialectQuery.IsXML() {
		t.Fatal("restxml/query should be xml-error-bodied")
	}
}
