package config

import "testing"

func TestGetEnvFallback(t *testing.T) {
	if got := GetEnv("STOREFRONT_TEST_UNSET", "fallback"); got != "fallback" {
		t.Fatalf("expected fallback, got %q", got)
	}
}

func TestGetEnvSet(t *testing.T) {
	t.Setenv("STOREFRONT_TEST_SET", "value")

	if got := GetEnv("STOREFRONT_TEST_SET", "fallback"); got != "value" {
		t.Fatalf("expected value, got %q", got)
	}
}

func TestGetEnvEmptyUsesFallback(t *testing.T) {
	t.Setenv("STOREFRONT_TEST_EMPTY", "")

	if got := GetEnv("STOREFRONT_TEST_EMPTY", "fallback"); got != "fallback" {
		t.Fatalf("expected fallback for empty value, got %q", got)
	}
}
