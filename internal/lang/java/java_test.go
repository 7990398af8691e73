package java

import (
	"context"
	"testing"

	"codepin/internal/construct"
)

const sample = `package shop;

import java.util.List;

public class Order {
    private int quantity = 1;
    public static final String CURRENCY = "EUR";

    @Deprecated
    public int total(int base) {
        return base * quantity;
    }

    public int total(int base, String code) {
        return base;
    }

    Order(int quantity) {
        this.quantity = quantity;
    }

    static class Line {
        int amount;
    }
}

interface Priced {
    int price();
}

enum Status {
    OPEN("o"),
    CLOSED("c");

    private final String code;

    Status(String code) {
        this.code = code;
    }
}
`

func index(t *testing.T, src string) []construct.Construct {
	t.Helper()
	out, err := New().IndexFile(context.Background(), []byte(src), "Order.java")
	if err != nil {
		t.Fatalf("IndexFile error: %v", err)
	}
	return out
}

func find(t *testing.T, cs []construct.Construct, qualname string) *construct.Construct {
	t.Helper()
	for i := range cs {
		if cs[i].Qualname == qualname {
			return &cs[i]
		}
	}
	names := make([]string, 0, len(cs))
	for _, c := range cs {
		names = append(names, c.Qualname)
	}
	t.Fatalf("construct %q not extracted; got %v", qualname, names)
	return nil
}

func TestIndexFileKinds(t *testing.T) {
	cs := index(t, sample)

	tests := []struct {
		qualname string
		kind     construct.Kind
		private  bool
	}{
		{"Order", construct.KindClass, false},
		{"Order.quantity", construct.KindField, true},
		{"Order.CURRENCY", construct.KindField, false},
		{"Order.total(int)", construct.KindMethod, false},
		{"Order.total(int,String)", construct.KindMethod, false},
		{"Order.Order(int)", construct.KindMethod, false},
		{"Order.Line", construct.KindClass, false},
		{"Order.Line.amount", construct.KindField, false},
		{"Priced", construct.KindInterface, false},
		{"Priced.price()", construct.KindMethod, false},
		{"Status", construct.KindEnum, false},
		{"Status.OPEN", construct.KindField, false},
		{"Status.CLOSED", construct.KindField, false},
		{"Status.code", construct.KindField, true},
		{"Status.Status(String)", construct.KindMethod, false},
	}

	for _, tt := range tests {
		t.Run(tt.qualname, func(t *testing.T) {
			c := find(t, cs, tt.qualname)
			if c.Kind != tt.kind {
				t.Errorf("kind = %v, want %v", c.Kind, tt.kind)
			}
			if c.Private != tt.private {
				t.Errorf("private = %v, want %v", c.Private, tt.private)
			}
		})
	}
}

func TestOverloadsHaveDistinctHashes(t *testing.T) {
	cs := index(t, sample)
	a := find(t, cs, "Order.total(int)")
	b := find(t, cs, "Order.total(int,String)")

	if a.InterfaceHash == b.InterfaceHash {
		t.Error("overloads with different parameter lists share an interface hash")
	}
}

func TestAnnotationsRecorded(t *testing.T) {
	cs := index(t, sample)
	c := find(t, cs, "Order.total(int)")

	if len(c.Decorators) != 1 || c.Decorators[0] != "@Deprecated" {
		t.Errorf("Decorators = %v, want [@Deprecated]", c.Decorators)
	}
}

func TestAnnotationChangeKeepsInterfaceHash(t *testing.T) {
	a := find(t, index(t, "class C {\n    @Deprecated\n    int f(int x) { return x; }\n}\n"), "C.f(int)")
	b := find(t, index(t, "class C {\n    @Override\n    int f(int x) { return x; }\n}\n"), "C.f(int)")

	if a.InterfaceHash != b.InterfaceHash {
		t.Error("annotation edit shifted the interface hash; annotations are compared separately")
	}
}

func TestInheritanceRecorded(t *testing.T) {
	src := `class Child extends Base implements Cloneable {
}
`
	cs := index(t, src)
	c := find(t, cs, "Child")

	if len(c.Bases) != 2 {
		t.Fatalf("Bases = %v, want [Base Cloneable]", c.Bases)
	}
}

func TestInheritanceChangesInterfaceHash(t *testing.T) {
	a := find(t, index(t, "class C extends A {\n}\n"), "C")
	b := find(t, index(t, "class C extends B {\n}\n"), "C")

	if a.InterfaceHash == b.InterfaceHash {
		t.Error("superclass change did not alter interface hash")
	}
}

func TestRenameKeepsMethodHashes(t *testing.T) {
	a := find(t, index(t, "class C {\n    int f(int x) { return x + 1; }\n}\n"), "C.f(int)")
	b := find(t, index(t, "class C {\n    int g(int x) { return x + 1; }\n}\n"), "C.g(int)")

	if a.InterfaceHash != b.InterfaceHash || a.BodyHash != b.BodyHash {
		t.Error("pure method rename changed a hash; hashes must be name-independent")
	}
}

func TestBodyFormattingInvariance(t *testing.T) {
	a := find(t, index(t, "class C {\n    int f() { return 1; }\n}\n"), "C.f()")
	b := find(t, index(t, "class C {\n    int f() {\n        // note\n        return 1;\n    }\n}\n"), "C.f()")

	if a.BodyHash != b.BodyHash {
		t.Error("comment/whitespace-only body difference changed body hash")
	}
}

func TestParameterTypeFormattingNormalized(t *testing.T) {
	spaced := "class C {\n    void f(java.util.Map< String , Integer > m, int[]  xs) { }\n}\n"
	tight := "class C {\n    void f(java.util.Map<String,Integer> m, int[] xs) { }\n}\n"

	want := "C.f(java.util.Map<String,Integer>,int[])"
	find(t, index(t, spaced), want)
	find(t, index(t, tight), want)
}
