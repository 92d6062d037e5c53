package avr

import "testing"

func TestPackOp3RoundTrip(t *testing.T) {
	word := packOp3(opFuseLdi16, 16, 0x7F, 0x01)
	if opTagOf(word) != opFuseLdi16 {
		t.Fatalf("tag = %v, want opFuseLdi16", opTagOf(word))
	}
	requireEqualU8(t, "op1", op1Of(word), 16)
	requireEqualU8(t, "op2", op2Of(word), 0x7F)
	requireEqualU8(t, "op3", op3Of(word), 0x01)
}

func TestPackOpImmRoundTrip(t *testing.T) {
	word := packOpImm(opJmp, 0x003FFFFE)
	if opTagOf(word) != opJmp {
		t.Fatalf("tag = %v, want opJmp", opTagOf(word))
	}
	requireEqualU32(t, "imm24", opImm24Of(word), 0x003FFFFE)
}

func TestOpImm16OfReadsOp2Op3AsLittleEndian(t *testing.T) {
	word := packOp3(opFuseLds16, 16, 0x34, 0x12)
	requireEqualU16(t, "imm16", opImm16Of(word), 0x1234)
}

func TestOpInvalidIsZeroSentinel(t *testing.T) {
	if opInvalid != 0 {
		t.Fatalf("opInvalid = %d, want 0 (untranslated-cache sentinel)", opInvalid)
	}
	if packOp3(opNop, 0, 0, 0) == 0 {
		t.Fatalf("a translated NOP must not collide with the zero sentinel")
	}
}
