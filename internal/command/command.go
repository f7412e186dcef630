// Package command decodes the free-text commands and button codes carried by
// inbound events into tagged values, so the router only ever sees input that
// has already been validated.
package command

import (
	"errors"
	"fmt"
	"strings"
)

// Kind identifies a decoded command.
type Kind string

const (
	Start            Kind = "start"
	RequestSignal    Kind = "request"
	PaymentInfo      Kind = "payment"
	PaymentMethod    Kind = "paymentmethod"
	SubmitProof      Kind = "proof"
	SetPayment       Kind = "setpayment"
	SetPaymentMethod Kind = "setpaymentmethod"
	Pending          Kind = "pending"
)

var (
	// ErrUnknownCommand is returned for command names Parse does not know.
	ErrUnknownCommand = errors.New("unknown command")
	// ErrMissingArgument is returned when a command that takes free text
	// arrives without any.
	ErrMissingArgument = errors.New("missing argument")
)

// descriptor describes one command.
type descriptor struct {
	operatorOnly bool
	needsArg     bool
	usage        string
}

var descriptors = map[Kind]descriptor{
	Start:            {usage: "/start"},
	RequestSignal:    {usage: "/request"},
	PaymentInfo:      {usage: "/payment"},
	PaymentMethod:    {usage: "/paymentmethod"},
	SubmitProof:      {needsArg: true, usage: "/proof <text>"},
	SetPayment:       {operatorOnly: true, needsArg: true, usage: "/setpayment <text>"},
	SetPaymentMethod: {operatorOnly: true, needsArg: true, usage: "/setpaymentmethod <text>"},
	Pending:          {operatorOnly: true, usage: "/pending"},
}

// aliases maps alternative spellings to their command.
var aliases = map[string]Kind{
	"help":   Start,
	"signal": RequestSignal,
}

// Command is a decoded command with its free-text argument, if any.
type Command struct {
	Kind Kind
	Arg  string
}

// OperatorOnly reports whether only the operator may run k.
func (k Kind) OperatorOnly() bool {
	return descriptors[k].operatorOnly
}

// Usage returns the usage line for k.
func (k Kind) Usage() string {
	return descriptors[k].usage
}

// Parse decodes a command name and its argument text. name may carry a
// leading slash, a "@botname" suffix, or the argument itself when args is
// empty ("/proof receipt.png").
func Parse(name, args string) (Command, error) {
	name = strings.TrimSpace(name)
	if args == "" {
		if i := strings.IndexFunc(name, isSpace); i >= 0 {
			name, args = name[:i], name[i+1:]
		}
	}
	name = strings.TrimPrefix(name, "/")
	if i := strings.IndexByte(name, '@'); i >= 0 {
		name = name[:i]
	}
	name = strings.ToLower(name)

	kind := Kind(name)
	if alias, ok := aliases[name]; ok {
		kind = alias
	}
	sp, ok := descriptors[kind]
	if !ok {
		return Command{}, fmt.Errorf("%w: %q", ErrUnknownCommand, name)
	}

	arg := strings.TrimSpace(args)
	if sp.needsArg && arg == "" {
		return Command{Kind: kind}, fmt.Errorf("%w: usage %s", ErrMissingArgument, sp.usage)
	}
	return Command{Kind: kind, Arg: arg}, nil
}

// ClientUsage lists the commands available to every client.
func ClientUsage() []string {
	return []string{
		RequestSignal.Usage() + " - ask whether a signal is available today",
		PaymentInfo.Usage() + " - show payment details (after approval)",
		PaymentMethod.Usage() + " - show accepted payment methods",
		SubmitProof.Usage() + " - send proof of payment to the owner",
	}
}

// OperatorUsage lists the operator-only commands.
func OperatorUsage() []string {
	return []string{
		SetPayment.Usage() + " - set payment details and send them to confirmed users",
		SetPaymentMethod.Usage() + " - set payment method text",
		Pending.Usage() + " - list pending requests and proofs",
	}
}

func isSpace(r rune) bool {
	return r == ' ' || r == '\t' || r == '\n'
}
