package models

import "testing"

func TestValidOrderMethod(t *testing.T) {
	for _, method := range []string{MethodCashOnDelivery, MethodCard} {
		if !ValidOrderMethod(method) {
			t.Fatalf("%q should be a valid method", method)
		}
	}
	for _, method := range []string{"", "card", "Barter"} {
		if ValidOrderMethod(method) {
			t.Fatalf("%q should not be a valid method", method)
		}
	}
}

func TestValidOrderStatus(t *testing.T) {
	for _, status := range []string{StatusProcessing, StatusDispatched, StatusCancelled, StatusDelivered} {
		if !ValidOrderStatus(status) {
			t.Fatalf("%q should be a valid status", status)
		}
	}
	for _, status := range []string{"", "processing", "Teleported"} {
		if ValidOrderStatus(status) {
			t.Fatalf("%q should not be a valid status", status)
		}
	}
}
