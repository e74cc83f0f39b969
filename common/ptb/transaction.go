// Package ptb builds Sui programmable transaction blocks and encodes them in BCS.
package ptb

import (
	"bytes"
	"encoding/binary"
	"strings"

	bin "github.com/gagliardetto/binary"
	"github.com/pkg/errors"
)

// ArgumentKind is the variant of a command argument.
type ArgumentKind uint8

const (
	ArgGasCoin ArgumentKind = iota
	ArgInput
	ArgResult
	ArgNestedResult
)

// Argument references the gas coin, an input, or the result of an earlier command.
type Argument struct {
	Kind     ArgumentKind
	Index    uint16
	SubIndex uint16
}

// CommandKind is the variant of a command. Values match the BCS enum index.
type CommandKind uint8

const (
	CmdMoveCall CommandKind = iota
	CmdTransferObjects
	CmdSplitCoins
	CmdMergeCoins
)

// Command is a single step of a programmable transaction.
type Command struct {
	Kind CommandKind

	// MoveCall
	Package  string
	Module   string
	Function string

	// Coin is the split source or the merge destination.
	Coin Argument
	// Arguments are the move call arguments, split amounts, merge sources or transferred objects.
	Arguments []Argument
	// Recipient is the TransferObjects destination.
	Recipient Argument
}

type inputKind uint8

const (
	inputPure inputKind = iota
	inputObject
)

type input struct {
	kind     inputKind
	pure     []byte
	objectID string
}

// Transaction accumulates inputs and commands.
type Transaction struct {
	inputs   []input
	objects  map[string]uint16
	commands []Command
	err      error
}

// New creates an empty transaction.
func New() *Transaction {
	return &Transaction{objects: make(map[string]uint16)}
}

// Err returns the first error recorded while adding inputs or commands.
func (t *Transaction) Err() error {
	return t.err
}

// Gas returns the argument referencing the gas coin.
func (t *Transaction) Gas() Argument {
	return Argument{Kind: ArgGasCoin}
}

// Pure adds an already BCS-encoded pure input.
func (t *Transaction) Pure(value []byte) Argument {
	t.inputs = append(t.inputs, input{kind: inputPure, pure: value})
	return Argument{Kind: ArgInput, Index: uint16(len(t.inputs) - 1)}
}

// PureU64 adds a u64 input.
func (t *Transaction) PureU64(v uint64) Argument {
	buf := make([]byte, 8)
	binary.LittleEndian.PutUint64(buf, v)
	return t.Pure(buf)
}

// PureBool adds a bool input.
func (t *Transaction) PureBool(v bool) Argument {
	if v {
		return t.Pure([]byte{1})
	}
	return t.Pure([]byte{0})
}

// PureString adds a string input (vector<u8> or std::string::String).
func (t *Transaction) PureString(s string) Argument {
	buf := new(bytes.Buffer)
	enc := bin.NewBinEncoder(buf)
	if err := encodeBytes(enc, []byte(s)); err != nil {
		t.fail(err)
	}
	return t.Pure(buf.Bytes())
}

// PureAddress adds an address input.
func (t *Transaction) PureAddress(addr string) Argument {
	raw, err := ParseAddress(addr)
	if err != nil {
		t.fail(errors.Wrap(err, "pure address"))
	}
	return t.Pure(raw[:])
}

// Object adds an object input. The same object id always maps to the same input.
func (t *Transaction) Object(id string) Argument {
	normalized, err := NormalizeAddress(id)
	if err != nil {
		t.fail(errors.Wrap(err, "object input"))
		normalized = id
	}
	if idx, ok := t.objects[normalized]; ok {
		return Argument{Kind: ArgInput, Index: idx}
	}
	t.inputs = append(t.inputs, input{kind: inputObject, objectID: normalized})
	idx := uint16(len(t.inputs) - 1)
	t.objects[normalized] = idx
	return Argument{Kind: ArgInput, Index: idx}
}

// SplitCoins splits one coin into len(amounts) new coins and returns them.
func (t *Transaction) SplitCoins(coin Argument, amounts ...Argument) []Argument {
	cmd := t.add(Command{Kind: CmdSplitCoins, Coin: coin, Arguments: amounts})
	results := make([]Argument, len(amounts))
	for i := range amounts {
		results[i] = Argument{Kind: ArgNestedResult, Index: cmd, SubIndex: uint16(i)}
	}
	return results
}

// MergeCoins merges sources into destination.
func (t *Transaction) MergeCoins(destination Argument, sources ...Argument) {
	t.add(Command{Kind: CmdMergeCoins, Coin: destination, Arguments: sources})
}

// MoveCall calls target ("package::module::function") with args and returns its result.
func (t *Transaction) MoveCall(target string, args ...Argument) Argument {
	parts := strings.Split(target, "::")
	if len(parts) != 3 || parts[0] == "" || parts[1] == "" || parts[2] == "" {
		t.fail(errors.Errorf("invalid move call target %q", target))
		parts = []string{"", "", ""}
	}
	cmd := t.add(Command{
		Kind:      CmdMoveCall,
		Package:   parts[0],
		Module:    parts[1],
		Function:  parts[2],
		Arguments: args,
	})
	return Argument{Kind: ArgResult, Index: cmd}
}

// TransferObjects sends objects to recipient.
func (t *Transaction) TransferObjects(objects []Argument, recipient Argument) {
	t.add(Command{Kind: CmdTransferObjects, Arguments: objects, Recipient: recipient})
}

// Commands returns a copy of the commands added so far.
func (t *Transaction) Commands() []Command {
	out := make([]Command, len(t.commands))
	copy(out, t.commands)
	return out
}

// ObjectIDs returns the ids of every object input, in input order.
func (t *Transaction) ObjectIDs() []string {
	var ids []string
	for _, in := range t.inputs {
		if in.kind == inputObject {
			ids = append(ids, in.objectID)
		}
	}
	return ids
}

// PureInput returns the encoded bytes of the pure input referenced by arg.
func (t *Transaction) PureInput(arg Argument) ([]byte, bool) {
	if arg.Kind != ArgInput || int(arg.Index) >= len(t.inputs) {
		return nil, false
	}
	in := t.inputs[arg.Index]
	if in.kind != inputPure {
		return nil, false
	}
	return in.pure, true
}

// ObjectInput returns the object id referenced by arg.
func (t *Transaction) ObjectInput(arg Argument) (string, bool) {
	if arg.Kind != ArgInput || int(arg.Index) >= len(t.inputs) {
		return "", false
	}
	in := t.inputs[arg.Index]
	if in.kind != inputObject {
		return "", false
	}
	return in.objectID, true
}

// GasDraw returns the total amount split off the gas coin by SplitCoins commands. Amounts that are
// not pure u64 inputs make the result unknown.
func (t *Transaction) GasDraw() (uint64, error) {
	var total uint64
	for _, cmd := range t.commands {
		if cmd.Kind != CmdSplitCoins || cmd.Coin.Kind != ArgGasCoin {
			continue
		}
		for _, amount := range cmd.Arguments {
			raw, ok := t.PureInput(amount)
			if !ok || len(raw) != 8 {
				return 0, errors.New("gas coin split amount is not a pure u64")
			}
			v := binary.LittleEndian.Uint64(raw)
			if total+v < total {
				return 0, errors.New("gas coin split amounts overflow")
			}
			total += v
		}
	}
	return total, nil
}

func (t *Transaction) add(cmd Command) uint16 {
	t.commands = append(t.commands, cmd)
	return uint16(len(t.commands) - 1)
}

func (t *Transaction) fail(err error) {
	if t.err == nil {
		t.err = err
	}
}
