package decision

import "testing"

func TestDecideNotInCatalog(t *testing.T) {
	d := Decide(Input{InCatalog: false})
	if d.Action != ActionFullScrape || !d.RequiresHTTP {
		t.Errorf("got %+v, want FULL_SCRAPE with HTTP", d)
	}
}

func TestDecideIncompleteProviderFields(t *testing.T) {
	d := Decide(Input{InCatalog: true, ProviderFieldsComplete: false})
	if d.Action != ActionFullScrape {
		t.Errorf("got %+v, want FULL_SCRAPE", d)
	}
}

func TestDecideSkipWhenScrapedAndComplete(t *testing.T) {
	d := Decide(Input{
		InCatalog:              true,
		ProviderFieldsComplete: true,
		EnabledMediaTypes:      []string{"screenshot", "box2d"},
		PresentMediaTypes:      map[string]bool{"screenshot": true, "box2d": true},
		HashChanged:            false,
		Policy:                 Policy{SkipScraped: true},
	})
	if d.Action != ActionSkip {
		t.Errorf("got %+v, want SKIP", d)
	}
}

func TestDecideMediaOnlyWhenPartial(t *testing.T) {
	d := Decide(Input{
		InCatalog:              true,
		ProviderFieldsComplete: true,
		EnabledMediaTypes:      []string{"screenshot", "box2d"},
		PresentMediaTypes:      map[string]bool{"screenshot": true},
		HashChanged:            false,
		Policy:                 Policy{SkipScraped: true},
	})
	if d.Action != ActionMediaOnly {
		t.Fatalf("got %+v, want MEDIA_ONLY", d)
	}
	if len(d.MediaTypes) != 1 || d.MediaTypes[0] != "box2d" {
		t.Errorf("MediaTypes = %v, want [box2d]", d.MediaTypes)
	}
}

func TestDecideUpdateOnChangedOnly(t *testing.T) {
	d := Decide(Input{
		InCatalog:              true,
		ProviderFieldsComplete: true,
		HashChanged:            true,
		Policy:                 Policy{Update: UpdateChangedOnly},
	})
	if d.Action != ActionUpdate {
		t.Errorf("got %+v, want UPDATE", d)
	}
}

func TestDecideUpdateAlways(t *testing.T) {
	d := Decide(Input{
		InCatalog:              true,
		ProviderFieldsComplete: true,
		HashChanged:            false,
		Policy:                 Policy{Update: UpdateAlways},
	})
	if d.Action != ActionUpdate {
		t.Errorf("got %+v, want UPDATE", d)
	}
}

func TestDecideFullScrapeOnNeverWithoutSkip(t *testing.T) {
	d := Decide(Input{
		InCatalog:              true,
		ProviderFieldsComplete: true,
		Policy:                 Policy{Update: UpdateNever, SkipScraped: false},
	})
	if d.Action != ActionFullScrape {
		t.Errorf("got %+v, want FULL_SCRAPE", d)
	}
}

func TestDecideIsPure(t *testing.T) {
	in := Input{
		InCatalog:              true,
		ProviderFieldsComplete: true,
		EnabledMediaTypes:      []string{"screenshot"},
		PresentMediaTypes:      map[string]bool{},
		Policy:                 Policy{Update: UpdateAlways},
	}
	a := Decide(in)
	b := Decide(in)
	if a.Action != b.Action || len(a.MediaTypes) != len(b.MediaTypes) {
		t.Errorf("Decide is not deterministic: %+v vs %+v", a, b)
	}
}

func TestSkipExprOverridesToSkip(t *testing.T) {
	override, err := CompileSkipExpr("not changed")
	if err != nil {
		t.Fatalf("CompileSkipExpr: %v", err)
	}
	in := Input{
		InCatalog:              true,
		ProviderFieldsComplete: true,
		EnabledMediaTypes:      []string{"screenshot"},
		PresentMediaTypes:      map[string]bool{},
		HashChanged:            false,
		Policy:                 Policy{Update: UpdateAlways},
	}
	d, err := DecideWithOverride(in, override)
	if err != nil {
		t.Fatalf("DecideWithOverride: %v", err)
	}
	if d.Action != ActionSkip {
		t.Errorf("got %+v, want SKIP override", d)
	}
}

func TestSkipExprNeverExpandsWork(t *testing.T) {
	override, err := CompileSkipExpr("false")
	if err != nil {
		t.Fatalf("CompileSkipExpr: %v", err)
	}
	in := Input{InCatalog: false}
	d, err := DecideWithOverride(in, override)
	if err != nil {
		t.Fatalf("DecideWithOverride: %v", err)
	}
	if d.Action != ActionFullScrape {
		t.Errorf("override unexpectedly changed a FULL_SCRAPE verdict: %+v", d)
	}
}
