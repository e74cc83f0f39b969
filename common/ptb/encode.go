package ptb

import (
	"bytes"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	bin "github.com/gagliardetto/binary"
	sol "github.com/gagliardetto/solana-go"
	"github.com/pkg/errors"
)

// AddressLength is the byte length of addresses and object ids.
const AddressLength = 32

// ObjectRef identifies a specific version of an object.
type ObjectRef struct {
	ObjectID string
	Version  uint64
	Digest   string
}

// ObjectArg is a resolved object input.
//
// Fields:
// - Ref: the object reference, for owned and immutable objects.
// - Shared: true when the object is shared.
// - InitialSharedVersion: the version at which the object became shared.
// - Mutable: whether a shared object is used mutably.
type ObjectArg struct {
	Ref                  ObjectRef
	Shared               bool
	InitialSharedVersion uint64
	Mutable              bool
}

// BuildParams carries everything needed to turn a transaction into TransactionData bytes.
//
// Fields:
// - Sender: the signing address.
// - GasPayment: coins paying for gas, merged into the gas coin.
// - GasOwner: the gas owner, defaults to Sender.
// - GasPrice: the reference gas price.
// - GasBudget: the maximum gas charge in MIST.
// - Objects: resolved object inputs keyed by normalized object id.
type BuildParams struct {
	Sender     string
	GasPayment []ObjectRef
	GasOwner   string
	GasPrice   uint64
	GasBudget  uint64
	Objects    map[string]ObjectArg
}

// NormalizeAddress returns addr as a 0x-prefixed, 64 hex digit lowercase string.
func NormalizeAddress(addr string) (string, error) {
	raw, err := ParseAddress(addr)
	if err != nil {
		return "", err
	}
	return hexutil.Encode(raw[:]), nil
}

// ParseAddress parses a possibly shortened hex address such as "0x2".
func ParseAddress(addr string) ([AddressLength]byte, error) {
	var out [AddressLength]byte
	s := strings.TrimPrefix(strings.TrimPrefix(strings.TrimSpace(addr), "0x"), "0X")
	if s == "" {
		return out, errors.Errorf("empty address %q", addr)
	}
	if len(s)%2 == 1 {
		s = "0" + s
	}
	raw, err := hexutil.Decode("0x" + s)
	if err != nil {
		return out, errors.Wrapf(err, "invalid address %q", addr)
	}
	if len(raw) > AddressLength {
		return out, errors.Errorf("address %q longer than %d bytes", addr, AddressLength)
	}
	copy(out[:], common.LeftPadBytes(raw, AddressLength))
	return out, nil
}

// Build encodes the transaction as BCS TransactionData::V1.
func (t *Transaction) Build(p BuildParams) ([]byte, error) {
	if t.err != nil {
		return nil, t.err
	}
	if len(t.commands) == 0 {
		return nil, errors.New("transaction has no commands")
	}
	if p.GasOwner == "" {
		p.GasOwner = p.Sender
	}

	buf := new(bytes.Buffer)
	enc := bin.NewBinEncoder(buf)

	// TransactionData::V1, TransactionKind::ProgrammableTransaction
	if err := writeVariant(enc, 0); err != nil {
		return nil, err
	}
	if err := writeVariant(enc, 0); err != nil {
		return nil, err
	}
	if err := t.encodeInputs(enc, p.Objects); err != nil {
		return nil, errors.Wrap(err, "failed to encode inputs")
	}
	if err := t.encodeCommands(enc); err != nil {
		return nil, errors.Wrap(err, "failed to encode commands")
	}
	if err := encodeAddress(enc, p.Sender); err != nil {
		return nil, errors.Wrap(err, "sender")
	}

	// GasData
	if err := enc.WriteUVarInt(len(p.GasPayment)); err != nil {
		return nil, err
	}
	for _, ref := range p.GasPayment {
		if err := encodeObjectRef(enc, ref); err != nil {
			return nil, errors.Wrap(err, "gas payment")
		}
	}
	if err := encodeAddress(enc, p.GasOwner); err != nil {
		return nil, errors.Wrap(err, "gas owner")
	}
	if err := enc.WriteUint64(p.GasPrice, bin.LE); err != nil {
		return nil, err
	}
	if err := enc.WriteUint64(p.GasBudget, bin.LE); err != nil {
		return nil, err
	}

	// TransactionExpiration::None
	if err := writeVariant(enc, 0); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

func (t *Transaction) encodeInputs(enc *bin.Encoder, objects map[string]ObjectArg) error {
	if err := enc.WriteUVarInt(len(t.inputs)); err != nil {
		return err
	}
	for _, in := range t.inputs {
		switch in.kind {
		case inputPure:
			if err := writeVariant(enc, 0); err != nil {
				return err
			}
			if err := encodeBytes(enc, in.pure); err != nil {
				return err
			}
		case inputObject:
			arg, ok := objects[in.objectID]
			if !ok {
				return errors.Errorf("object %s is not resolved", in.objectID)
			}
			if err := writeVariant(enc, 1); err != nil {
				return err
			}
			if err := encodeObjectArg(enc, in.objectID, arg); err != nil {
				return errors.Wrapf(err, "object %s", in.objectID)
			}
		}
	}
	return nil
}

func (t *Transaction) encodeCommands(enc *bin.Encoder) error {
	if err := enc.WriteUVarInt(len(t.commands)); err != nil {
		return err
	}
	for _, cmd := range t.commands {
		if err := writeVariant(enc, int(cmd.Kind)); err != nil {
			return err
		}
		switch cmd.Kind {
		case CmdMoveCall:
			if err := encodeAddress(enc, cmd.Package); err != nil {
				return errors.Wrap(err, "move call package")
			}
			if err := encodeBytes(enc, []byte(cmd.Module)); err != nil {
				return err
			}
			if err := encodeBytes(enc, []byte(cmd.Function)); err != nil {
				return err
			}
			// no type arguments
			if err := enc.WriteUVarInt(0); err != nil {
				return err
			}
			if err := encodeArguments(enc, cmd.Arguments); err != nil {
				return err
			}
		case CmdTransferObjects:
			if err := encodeArguments(enc, cmd.Arguments); err != nil {
				return err
			}
			if err := encodeArgument(enc, cmd.Recipient); err != nil {
				return err
			}
		case CmdSplitCoins, CmdMergeCoins:
			if err := encodeArgument(enc, cmd.Coin); err != nil {
				return err
			}
			if err := encodeArguments(enc, cmd.Arguments); err != nil {
				return err
			}
		default:
			return errors.Errorf("unsupported command kind %d", cmd.Kind)
		}
	}
	return nil
}

func encodeObjectArg(enc *bin.Encoder, id string, arg ObjectArg) error {
	if arg.Shared {
		// ObjectArg::SharedObject
		if err := writeVariant(enc, 1); err != nil {
			return err
		}
		if err := encodeAddress(enc, id); err != nil {
			return err
		}
		if err := enc.WriteUint64(arg.InitialSharedVersion, bin.LE); err != nil {
			return err
		}
		return enc.WriteBool(arg.Mutable)
	}
	// ObjectArg::ImmOrOwnedObject
	if err := writeVariant(enc, 0); err != nil {
		return err
	}
	return encodeObjectRef(enc, arg.Ref)
}

func encodeObjectRef(enc *bin.Encoder, ref ObjectRef) error {
	if err := encodeAddress(enc, ref.ObjectID); err != nil {
		return err
	}
	if err := enc.WriteUint64(ref.Version, bin.LE); err != nil {
		return err
	}
	digest, err := sol.HashFromBase58(ref.Digest)
	if err != nil {
		return errors.Wrapf(err, "invalid object digest %q", ref.Digest)
	}
	return encodeBytes(enc, digest[:])
}

func encodeArguments(enc *bin.Encoder, args []Argument) error {
	if err := enc.WriteUVarInt(len(args)); err != nil {
		return err
	}
	for _, arg := range args {
		if err := encodeArgument(enc, arg); err != nil {
			return err
		}
	}
	return nil
}

func encodeArgument(enc *bin.Encoder, arg Argument) error {
	if err := writeVariant(enc, int(arg.Kind)); err != nil {
		return err
	}
	switch arg.Kind {
	case ArgGasCoin:
		return nil
	case ArgInput, ArgResult:
		return enc.WriteUint16(arg.Index, bin.LE)
	case ArgNestedResult:
		if err := enc.WriteUint16(arg.Index, bin.LE); err != nil {
			return err
		}
		return enc.WriteUint16(arg.SubIndex, bin.LE)
	default:
		return errors.Errorf("unsupported argument kind %d", arg.Kind)
	}
}

func encodeAddress(enc *bin.Encoder, addr string) error {
	raw, err := ParseAddress(addr)
	if err != nil {
		return err
	}
	return enc.WriteBytes(raw[:], false)
}

// encodeBytes writes a ULEB128 length prefix followed by b.
func encodeBytes(enc *bin.Encoder, b []byte) error {
	if err := enc.WriteUVarInt(len(b)); err != nil {
		return err
	}
	return enc.WriteBytes(b, false)
}

// writeVariant writes a BCS enum variant index.
func writeVariant(enc *bin.Encoder, idx int) error {
	return enc.WriteUVarInt(idx)
}
