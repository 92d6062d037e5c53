package avr

// opTag is the closed, 8-bit dispatch tag named in spec §4.D/§9: a sum
// type re-architecture of simavr's function-pointer table, so the fast
// switch in dispatch.go is exhaustive at compile time instead of indexing
// a raw array of callbacks.
type opTag uint8

const (
	// opInvalid is the reserved "do-not-translate" sentinel: an all-zero
	// micro-op word is unambiguously "not yet translated" (spec §4.D).
	opInvalid opTag = iota

	opNop
	opAdd
	opAdc
	opSub
	opSbc
	opSubi
	opSbci
	opAndOp
	opAndi
	opOrOp
	opOri
	opEor
	opComOp
	opNeg
	opInc
	opDec
	opLsr
	opAsr
	opRor
	opSwapOp

	opCp
	opCpc
	opCpi
	opCpse

	opBrbs
	opBrbc

	opBld
	opBst
	opSbi
	opCbi
	opSbis
	opSbic
	opSbrs
	opSbrc
	opBset
	opBclr

	opLd     // LD Rd, X/Y/Z  (mode: 0 plain, 1 post-inc, 2 pre-dec)
	opLdd    // LDD Rd, Y/Z+q
	opLds    // LDS Rd, k16
	opSt     // ST X/Y/Z, Rd
	opStd    // STD Y/Z+q, Rd
	opSts    // STS k16, Rd
	opLpm    // LPM Rd, Z (+ optional post-inc)
	opElpm   // ELPM Rd, Z (+ optional post-inc)
	opPop
	opPush

	opMov
	opMovw
	opLdi
	opIn
	opOut

	opAdiw
	opSbiw

	opMul
	opMuls
	opMulsu
	opFmul
	opFmuls
	opFmulsu

	opRjmp
	opRcall
	opJmp
	opCall
	opIjmp
	opIcall
	opEijmp
	opEicall
	opRet
	opReti
	opSleepOp
	opBreakOp
	opWdr
	opSpm

	// Fused ops (spec §4.D table). Each collapses the two-instruction
	// sequence's cache slot at address P into one micro-op advancing PC
	// by 4 and charging the summed cycle cost.
	opFuseAddAdc16
	opFuseCpCpc16
	opFuseCpiCpc16
	opFuseLdi16
	opFuseLdiOut
	opFuseAndiAndi16
	opFuseSubiSbci16
	opFuseLds16
	opFuseSts16
	opFuseLdd16
	opFuseStd16
	opFuseLpm16
	opFuseLpmSt
	opFusePop16
	opFusePush16
	opFuseLsrRor16
	opFuseLdsTst
	opFuseInPush
	opFuseInSbrs
	opFusePopOut

	numOpTags
)

// packOp3 encodes a micro-op carrying up to three 8-bit pre-decoded
// operand slots: u_opcode = (op3<<24)|(op2<<16)|(op1<<8)|tag.
func packOp3(tag opTag, op1, op2, op3 uint8) uint32 {
	return uint32(op3)<<24 | uint32(op2)<<16 | uint32(op1)<<8 | uint32(tag)
}

// packOpImm encodes a micro-op carrying a 24-bit immediate tail instead of
// three independent operand bytes (used by long-jump/call targets).
func packOpImm(tag opTag, imm24 uint32) uint32 {
	return (imm24&0x00FFFFFF)<<8 | uint32(tag)
}

func opTagOf(word uint32) opTag   { return opTag(word & 0xFF) }
func op1Of(word uint32) uint8     { return uint8(word >> 8) }
func op2Of(word uint32) uint8     { return uint8(word >> 16) }
func op3Of(word uint32) uint8     { return uint8(word >> 24) }
func opImm24Of(word uint32) uint32 { return (word >> 8) & 0x00FFFFFF }
func opImm16Of(word uint32) uint16 { return uint16(op2Of(word)) | uint16(op3Of(word))<<8 }
