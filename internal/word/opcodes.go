package word

// Mnemonic pairs an assembly mnemonic with its fixed opcode and the
// Category used to pick its decode path. The table is built once at
// package init (N3): no per-instruction string scanning, and every
// mnemonic is looked up (or reverse-looked-up by opcode) in constant time.
type Mnemonic struct {
	Name     string
	Opcode   uint8
	Category Category
}

// ByName and ByOpcode are the one-shot lookup tables described by N3.
// Mnemonic text is always lower-case; callers normalize before lookup.
var (
	ByName   map[string]Mnemonic
	ByOpcode map[uint8]Mnemonic
)

// mnemonics is the fixed 46-entry opcode table (§6.4). Every opcode is
// distinct and every mnemonic maps to exactly one opcode and vice versa
// (P2).
var mnemonics = []Mnemonic{
	{"load", 0x00, CategoryMemory},
	{"store", 0x01, CategoryMemory},
	{"mem", 0x02, CategoryMemDisplay},
	{"mov", 0x03, CategoryMov},
	{"movi", 0x04, CategoryMov},
	{"lea", 0x05, CategoryMemory},

	{"ret", 0x08, CategoryNoOperand},
	{"call", 0x09, CategoryControl},
	{"push", 0x0A, CategoryStack},
	{"pop", 0x0B, CategoryStack},

	{"jmp", 0x10, CategoryControl},
	{"je", 0x11, CategoryControl},
	{"jne", 0x12, CategoryControl},
	{"js", 0x13, CategoryControl},
	{"jns", 0x14, CategoryControl},
	{"jg", 0x15, CategoryControl},
	{"jge", 0x16, CategoryControl},
	{"jl", 0x17, CategoryControl},
	{"jle", 0x18, CategoryControl},

	{"add", 0x20, CategoryRType},
	{"sub", 0x21, CategoryRType},
	{"mul", 0x22, CategoryRType},
	{"div", 0x23, CategoryRType},
	{"mod", 0x24, CategoryRType},
	{"and", 0x25, CategoryRType},
	{"or", 0x26, CategoryRType},
	{"xor", 0x27, CategoryRType},
	{"nor", 0x28, CategoryRType},
	{"sll", 0x29, CategoryRType},
	{"slt", 0x2A, CategoryRType},
	{"srl", 0x2B, CategoryRType},
	{"sra", 0x2C, CategoryRType},
	{"sltu", 0x2D, CategoryRType},

	{"addi", 0x30, CategoryIType},
	{"subi", 0x31, CategoryIType},
	{"muli", 0x32, CategoryIType},
	{"divi", 0x33, CategoryIType},
	{"modi", 0x34, CategoryIType},
	{"andi", 0x35, CategoryIType},
	{"ori", 0x36, CategoryIType},
	{"xori", 0x37, CategoryIType},
	{"nori", 0x38, CategoryIType},
	{"slli", 0x39, CategoryIType},
	{"slti", 0x3A, CategoryIType},
	{"srli", 0x3B, CategoryIType},
	{"srai", 0x3C, CategoryIType},
}

func init() {
	ByName = make(map[string]Mnemonic, len(mnemonics))
	ByOpcode = make(map[uint8]Mnemonic, len(mnemonics))
	for _, m := range mnemonics {
		ByName[m.Name] = m
		ByOpcode[m.Opcode] = m
	}
}
