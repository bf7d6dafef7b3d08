package main

import (
	"context"
	"testing"
)

func TestBuildServicesOffline(t *testing.T) {
	CLI.DB = ""
	CLI.ScriptureKey = ""
	CLI.GenKey = ""

	svc, err := buildServices()
	if err != nil {
		t.Fatalf("buildServices failed: %v", err)
	}
	defer svc.close()

	if svc.store != nil {
		t.Error("expected no store without a DB path")
	}

	passage := svc.resolver.Resolve(context.Background(), "John 3:16", "KJV")
	if passage.Reference != "John 3:16" {
		t.Errorf("expected John 3:16, got %s", passage.Reference)
	}
}

func TestBuildServicesWithStore(t *testing.T) {
	CLI.DB = ":memory:"
	defer func() { CLI.DB = "" }()

	svc, err := buildServices()
	if err != nil {
		t.Fatalf("buildServices failed: %v", err)
	}
	defer svc.close()

	if svc.store == nil {
		t.Fatal("expected a store for :memory:")
	}
}
