package query

import (
	"errors"
	"net/url"
	"testing"
)

func fullValues() url.Values {
	return url.Values{
		"net":   {"IU"},
		"sta":   {"ANMO"},
		"loc":   {"00"},
		"cha":   {"BHZ"},
		"start": {"2020-01-01"},
		"end":   {"2020-01-02"},
	}
}

func TestParse_AllPresent(t *testing.T) {
	q, err := Parse(fullValues())
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	want := PlotQuery{Net: "IU", Sta: "ANMO", Loc: "00", Cha: "BHZ", Start: "2020-01-01", End: "2020-01-02"}
	if q != want {
		t.Errorf("Parse: got %+v, want %+v", q, want)
	}
}

func TestParse_EachMissingField(t *testing.T) {
	for _, f := range Fields {
		t.Run(f, func(t *testing.T) {
			v := fullValues()
			v.Del(f)
			_, err := Parse(v)
			var me *MissingError
			if !errors.As(err, &me) {
				t.Fatalf("Parse: got %v, want *MissingError", err)
			}
			if me.Field != f {
				t.Errorf("Field: got %q, want %q", me.Field, f)
			}
			if me.Notice() != "Missing "+f {
				t.Errorf("Notice: got %q, want %q", me.Notice(), "Missing "+f)
			}
		})
	}
}

func TestParse_EmptyValueCountsAsMissing(t *testing.T) {
	v := fullValues()
	v.Set("cha", "")
	_, err := Parse(v)
	var me *MissingError
	if !errors.As(err, &me) || me.Field != "cha" {
		t.Fatalf("Parse: got %v, want missing cha", err)
	}
}

func TestParse_FailsFastInFieldOrder(t *testing.T) {
	// sta, cha and end are all missing; only the first is reported.
	v := url.Values{"net": {"IU"}, "loc": {"00"}, "start": {"2020-01-01"}}
	_, err := Parse(v)
	var me *MissingError
	if !errors.As(err, &me) {
		t.Fatalf("Parse: got %v, want *MissingError", err)
	}
	if me.Field != "sta" {
		t.Errorf("Field: got %q, want sta", me.Field)
	}
}

func TestParse_ExtraKeysDropped(t *testing.T) {
	v := fullValues()
	v.Set("format", "svg")
	v.Set("dpi", "300")
	q, err := Parse(v)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	out := q.Values()
	if len(out) != len(Fields) {
		t.Errorf("Values: got %d keys, want %d", len(out), len(Fields))
	}
	if out.Has("format") || out.Has("dpi") {
		t.Errorf("Values: extra keys carried through: %v", out)
	}
}

func TestParse_Deterministic(t *testing.T) {
	a, _ := Parse(fullValues())
	b, _ := Parse(fullValues())
	if a != b || a.Key() != b.Key() {
		t.Errorf("Parse not deterministic: %+v vs %+v", a, b)
	}
}

func TestKey_DistinguishesFields(t *testing.T) {
	a := PlotQuery{Net: "IU", Sta: "ANMO", Loc: "00", Cha: "BHZ", Start: "s", End: "e"}
	b := a
	b.Loc = "10"
	if a.Key() == b.Key() {
		t.Errorf("Key: %q should differ from %q", a.Key(), b.Key())
	}
	c := PlotQuery{Net: "I|U", Sta: "ANMO"}
	d := PlotQuery{Net: "I", Sta: "U|ANMO"}
	if c.Key() == d.Key() {
		t.Errorf("Key: separator collision between %+v and %+v", c, d)
	}
}

func TestString(t *testing.T) {
	q := PlotQuery{Net: "IU", Sta: "ANMO", Loc: "00", Cha: "BHZ", Start: "a", End: "b"}
	if got := q.String(); got != "IU.ANMO.00.BHZ [a, b]" {
		t.Errorf("String: got %q", got)
	}
}
