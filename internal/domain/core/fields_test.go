package core

import "testing"

func TestMaskedBankAccount(t *testing.T) {
	emp := Employee{BankAccount: "BOC-987654321"}
	if got := emp.MaskedBankAccount(); got != "*********4321" {
		t.Fatalf("expected masked account, got %q", got)
	}
}

func TestMaskedBankAccountShortOrEmpty(t *testing.T) {
	if got := (Employee{BankAccount: "123"}).MaskedBankAccount(); got != "123" {
		t.Fatalf("expected short account unchanged, got %q", got)
	}
	if got := (Employee{}).MaskedBankAccount(); got != "" {
		t.Fatalf("expected empty account, got %q", got)
	}
}
