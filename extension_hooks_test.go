package accounts

import (
	"context"
	"fmt"
	"testing"

	"github.com/goliatone/go-accounts/core"
)

func TestExtensionHooks_RegisterAndApplyProviderPacks(t *testing.T) {
	hooks := NewExtensionHooks()
	pack := ProviderPack{
		Name:      "inhouse",
		Providers: []core.Provider{extensionProvider{id: "acme"}},
	}
	if err := hooks.RegisterProviderPack(pack); err != nil {
		t.Fatalf("register provider pack: %v", err)
	}
	if err := hooks.RegisterProviderPack(pack); err == nil {
		t.Fatalf("expected duplicate provider pack registration error")
	}

	registry := core.MustProviderRegistry()
	if err := hooks.ApplyProviderPacks(registry); err != nil {
		t.Fatalf("apply provider packs: %v", err)
	}
	if _, ok := registry.Get("acme"); !ok {
		t.Fatalf("expected provider pack registration in registry")
	}
}

func TestExtensionHooks_ApplyRejectsProviderIDConflicts(t *testing.T) {
	hooks := NewExtensionHooks()
	if err := hooks.RegisterProviderPack(ProviderPack{
		Name:      "shadow",
		Providers: []core.Provider{extensionProvider{id: "spotify"}},
	}); err != nil {
		t.Fatalf("register provider pack: %v", err)
	}
	registry := core.MustProviderRegistry(extensionProvider{id: "spotify"})
	if err := hooks.ApplyProviderPacks(registry); err == nil {
		t.Fatalf("expected conflicting provider id error")
	}
}

func TestExtensionHooks_Validation(t *testing.T) {
	hooks := NewExtensionHooks()
	if err := hooks.RegisterProviderPack(ProviderPack{Name: " "}); err == nil {
		t.Fatalf("expected pack name error")
	}
	if err := hooks.RegisterProviderPack(ProviderPack{Name: "empty"}); err == nil {
		t.Fatalf("expected empty pack error")
	}
	if err := hooks.RegisterCommandQueryBundle("bundle", nil); err == nil {
		t.Fatalf("expected nil factory error")
	}
	if err := hooks.ApplyProviderPacks(nil); err == nil {
		t.Fatalf("expected nil registry error")
	}

	var nilHooks *ExtensionHooks
	if err := nilHooks.ApplyProviderPacks(core.MustProviderRegistry()); err != nil {
		t.Fatalf("expected nil hooks to be a no-op, got %v", err)
	}
	bundles, err := nilHooks.BuildCommandQueryBundles(&stubFacadeService{})
	if err != nil || len(bundles) != 0 {
		t.Fatalf("expected empty bundles from nil hooks, got %v %v", bundles, err)
	}
}

func TestExtensionHooks_BuildCommandQueryBundles(t *testing.T) {
	hooks := NewExtensionHooks()
	for _, name := range []string{"b_bundle", "a_bundle"} {
		name := name
		if err := hooks.RegisterCommandQueryBundle(name, func(service CommandQueryService) (any, error) {
			if service == nil {
				return nil, fmt.Errorf("service required")
			}
			return name + "_value", nil
		}); err != nil {
			t.Fatalf("register bundle %s: %v", name, err)
		}
	}

	names := hooks.BundleNames()
	if len(names) != 2 || names[0] != "a_bundle" || names[1] != "b_bundle" {
		t.Fatalf("expected sorted bundle names, got %v", names)
	}
	bundles, err := hooks.BuildCommandQueryBundles(&stubFacadeService{})
	if err != nil {
		t.Fatalf("build bundles: %v", err)
	}
	if bundles["a_bundle"] != "a_bundle_value" || bundles["b_bundle"] != "b_bundle_value" {
		t.Fatalf("unexpected bundles %#v", bundles)
	}
	if _, err := hooks.BuildCommandQueryBundles(nil); err == nil {
		t.Fatalf("expected nil service error")
	}
}

type extensionProvider struct {
	id string
}

func (p extensionProvider) ID() string { return p.id }

func (extensionProvider) UsesPKCE() bool { return false }

func (p extensionProvider) AuthorizeURL(req core.AuthorizeRequest) (string, error) {
	return "https://" + p.id + ".test/authorize?state=" + req.State, nil
}

func (extensionProvider) Exchange(context.Context, core.ExchangeRequest) (core.TokenSet, error) {
	return core.TokenSet{AccessToken: "AT"}, nil
}

func (p extensionProvider) FetchProfile(context.Context, string) (core.Profile, error) {
	return core.Profile{ProviderUserID: p.id + "-user", DisplayName: "Extension"}, nil
}
