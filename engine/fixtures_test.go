package engine

import (
	"fmt"

	"github.com/roach88/reprise/entity"
	"github.com/roach88/reprise/value"
)

// Test domains. Each mirrors a shape the engine must drive: pure state
// mutation (Counter), entity creation (Factory/Product), cross-entity calls
// (Sender/Receiver), service calls (Notifier), multi-step continuations
// (Project), and the blog domain (User/Article/Comment).

// Counter is the smallest possible entity: one int of state, no external
// interactions.
type Counter struct {
	value int64
}

func newCounter() entity.Entity { return &Counter{} }

func (c *Counter) Kind() string { return "Counter" }

func (c *Counter) Init(_ entity.Caller, args value.Object) error {
	c.value = int64(args["value"].(value.Int))
	return nil
}

func (c *Counter) Invoke(_ entity.Caller, method string, args value.Object) (value.Value, error) {
	switch method {
	case "increment":
		c.value += int64(args["delta"].(value.Int))
		return nil, nil
	case "read":
		return value.Int(c.value), nil
	}
	return nil, entity.ErrUnknownMethod
}

func (c *Counter) Snapshot() (value.Value, error) { return value.Int(c.value), nil }

func (c *Counter) Restore(state value.Value) error {
	n, ok := state.(value.Int)
	if !ok {
		return fmt.Errorf("counter state must be an int, got %T", state)
	}
	c.value = int64(n)
	return nil
}

// Factory holds refs to the products it made. Its constructor and its make
// method both create Product entities, which suspends the execution.
type Factory struct {
	products []value.Ref
}

func newFactory() entity.Entity { return &Factory{} }

func (f *Factory) Kind() string { return "Factory" }

func (f *Factory) Init(c entity.Caller, args value.Object) error {
	product, err := c.Create("Product", value.Object{"name": args["product_name"]})
	if err != nil {
		return err
	}
	f.products = []value.Ref{product}
	return nil
}

func (f *Factory) Invoke(c entity.Caller, method string, args value.Object) (value.Value, error) {
	switch method {
	case "make":
		product, err := c.Create("Product", value.Object{"name": args["product_name"]})
		if err != nil {
			return nil, err
		}
		f.products = append(f.products, product)
		return product, nil
	}
	return nil, entity.ErrUnknownMethod
}

func (f *Factory) Snapshot() (value.Value, error) {
	products := make(value.Array, len(f.products))
	for i, p := range f.products {
		products[i] = p
	}
	return products, nil
}

func (f *Factory) Restore(state value.Value) error {
	arr, ok := state.(value.Array)
	if !ok {
		return fmt.Errorf("factory state must be an array, got %T", state)
	}
	f.products = make([]value.Ref, len(arr))
	for i, v := range arr {
		ref, ok := v.(value.Ref)
		if !ok {
			return fmt.Errorf("factory state[%d] must be a ref, got %T", i, v)
		}
		f.products[i] = ref
	}
	return nil
}

// Sender talks to a Receiver entity and records the replies. A failed
// delivery is translated into the sender's own error type, exercising
// domain-error handling inside method bodies.
type Sender struct {
	receiver value.Ref
	replies  []string
}

func newSender() entity.Entity { return &Sender{} }

func (s *Sender) Kind() string { return "Sender" }

func (s *Sender) Init(c entity.Caller, args value.Object) error {
	s.receiver = args["receiver"].(value.Ref)
	reply, err := s.deliver(c, args["message"])
	if err != nil {
		return err
	}
	s.replies = []string{reply}
	return nil
}

func (s *Sender) Invoke(c entity.Caller, method string, args value.Object) (value.Value, error) {
	switch method {
	case "send":
		reply, err := s.deliver(c, args["message"])
		if err != nil {
			return nil, err
		}
		s.replies = append(s.replies, reply)
		return value.String("Replied!"), nil
	}
	return nil, entity.ErrUnknownMethod
}

// deliver asks the receiver to reply, translating its failure into the
// sender's own error type.
func (s *Sender) deliver(c entity.Caller, message value.Value) (string, error) {
	reply, err := c.Call(s.receiver, "reply", value.Object{"message": message})
	if err != nil {
		if derr, ok := entity.AsDomainError(err); ok && derr.Name == "MessageNotReceived" {
			return "", entity.NewDomainError("MessageNotSent",
				value.O("message", derr.Args["message"]),
				value.O("reason", derr.Args["reason"]),
			)
		}
		return "", err
	}
	return string(reply.(value.String)), nil
}

func (s *Sender) Snapshot() (value.Value, error) {
	replies := make(value.Array, len(s.replies))
	for i, r := range s.replies {
		replies[i] = value.String(r)
	}
	return value.Object{"receiver": s.receiver, "replies": replies}, nil
}

func (s *Sender) Restore(state value.Value) error {
	obj, ok := state.(value.Object)
	if !ok {
		return fmt.Errorf("sender state must be an object, got %T", state)
	}
	s.receiver = obj["receiver"].(value.Ref)
	arr := obj["replies"].(value.Array)
	s.replies = make([]string, len(arr))
	for i, v := range arr {
		s.replies[i] = string(v.(value.String))
	}
	return nil
}

// Receiver is the callee side of the Sender conversation. Its reply method
// can be asked to fail, exercising the domain-failure path.
type Receiver struct {
	messages []string
}

func newReceiver() entity.Entity { return &Receiver{} }

func (r *Receiver) Kind() string { return "Receiver" }

func (r *Receiver) Init(_ entity.Caller, _ value.Object) error {
	r.messages = nil
	return nil
}

func (r *Receiver) Invoke(_ entity.Caller, method string, args value.Object) (value.Value, error) {
	switch method {
	case "reply":
		message := string(args["message"].(value.String))
		if bad, ok := args["bad_things_happen"].(value.Bool); ok && bool(bad) {
			return nil, entity.NewDomainError("MessageNotReceived",
				value.O("message", value.String(message)),
				value.O("reason", value.String("Bad things happen")),
			)
		}
		r.messages = append(r.messages, message)
		return value.String(fmt.Sprintf("Received %q", message)), nil
	}
	return nil, entity.ErrUnknownMethod
}

func (r *Receiver) Snapshot() (value.Value, error) {
	messages := make(value.Array, len(r.messages))
	for i, m := range r.messages {
		messages[i] = value.String(m)
	}
	return messages, nil
}

func (r *Receiver) Restore(state value.Value) error {
	arr, ok := state.(value.Array)
	if !ok {
		return fmt.Errorf("receiver state must be an array, got %T", state)
	}
	r.messages = make([]string, len(arr))
	for i, v := range arr {
		r.messages[i] = string(v.(value.String))
	}
	return nil
}

// Notifier reaches an external delivery service instead of another entity.
type Notifier struct {
	sent int64
}

func newNotifier() entity.Entity { return &Notifier{} }

func (n *Notifier) Kind() string { return "Notifier" }

func (n *Notifier) Init(_ entity.Caller, _ value.Object) error { return nil }

func (n *Notifier) Invoke(c entity.Caller, method string, args value.Object) (value.Value, error) {
	switch method {
	case "notify":
		receipt, err := c.CallService("Mailer", "deliver", value.Object{"to": args["to"], "body": args["body"]})
		if err != nil {
			return nil, err
		}
		n.sent++
		return receipt, nil
	}
	return nil, entity.ErrUnknownMethod
}

func (n *Notifier) Snapshot() (value.Value, error) { return value.Int(n.sent), nil }

func (n *Notifier) Restore(state value.Value) error {
	count, ok := state.(value.Int)
	if !ok {
		return fmt.Errorf("notifier state must be an int, got %T", state)
	}
	n.sent = int64(count)
	return nil
}

// Project drives two dependent service calls: the second call's arguments
// are built from the first call's response, which exercises replay across
// suspensions.
type Project struct {
	description string
	tests       string
	code        string
}

func newProject() entity.Entity { return &Project{} }

func (p *Project) Kind() string { return "Project" }

func (p *Project) Init(c entity.Caller, args value.Object) error {
	p.description = string(args["description"].(value.String))

	tests, err := c.CallService("LLM", "complete", value.Object{
		"prompt": value.String("write tests for " + p.description),
	})
	if err != nil {
		return err
	}
	p.tests = string(tests.(value.String))

	code, err := c.CallService("LLM", "complete", value.Object{
		"prompt": value.String("write code passing " + p.tests),
	})
	if err != nil {
		return err
	}
	p.code = string(code.(value.String))
	return nil
}

func (p *Project) Invoke(c entity.Caller, method string, args value.Object) (value.Value, error) {
	switch method {
	case "fix_code":
		code, err := c.CallService("LLM", "complete", value.Object{
			"prompt": value.String("fix " + p.code + ": " + string(args["error"].(value.String))),
		})
		if err != nil {
			return nil, err
		}
		p.code = string(code.(value.String))
		return nil, nil
	}
	return nil, entity.ErrUnknownMethod
}

func (p *Project) Snapshot() (value.Value, error) {
	return value.Object{
		"description": value.String(p.description),
		"tests":       value.String(p.tests),
		"code":        value.String(p.code),
	}, nil
}

func (p *Project) Restore(state value.Value) error {
	obj, ok := state.(value.Object)
	if !ok {
		return fmt.Errorf("project state must be an object, got %T", state)
	}
	p.description = string(obj["description"].(value.String))
	p.tests = string(obj["tests"].(value.String))
	p.code = string(obj["code"].(value.String))
	return nil
}

// User is the blog domain's subject: writing an article is pure, writing a
// comment creates a Comment entity and registers it with the article.
type User struct {
	name string
}

func newUser() entity.Entity { return &User{} }

func (u *User) Kind() string { return "User" }

func (u *User) Init(_ entity.Caller, args value.Object) error {
	u.name = string(args["name"].(value.String))
	return nil
}

func (u *User) Invoke(c entity.Caller, method string, args value.Object) (value.Value, error) {
	switch method {
	case "write_article":
		return value.Object{
			"title":  args["title"],
			"author": c.Self(),
		}, nil
	case "write_comment":
		article := args["article"].(value.Ref)
		comment, err := c.Create("Comment", value.Object{
			"author": c.Self(),
			"text":   args["text"],
		})
		if err != nil {
			return nil, err
		}
		if _, err := c.Call(article, "add_comment", value.Object{"comment": comment}); err != nil {
			return nil, err
		}
		return comment, nil
	}
	return nil, entity.ErrUnknownMethod
}

func (u *User) Snapshot() (value.Value, error) {
	return value.Object{"name": value.String(u.name)}, nil
}

func (u *User) Restore(state value.Value) error {
	obj, ok := state.(value.Object)
	if !ok {
		return fmt.Errorf("user state must be an object, got %T", state)
	}
	u.name = string(obj["name"].(value.String))
	return nil
}
