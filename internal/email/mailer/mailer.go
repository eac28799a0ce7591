package mailer

import (
	"context"
	"fmt"
	"html/template"
	"strings"

	"github.com/sodrunberkicau/microservice-docker-alp/pkg/contracts"

	"github.com/wneessen/go-mail"
)

var bodyTmpl = template.Must(template.New("order").Parse(`
<h3>Hi User {{.UserID}},</h3>
<p>Your order has been successfully created:</p>
<ul>
    <li>Product ID: {{.ProductID}}</li>
    <li>Quantity: {{.Quantity}}</li>
    <li>Price: ${{.Price}}</li>
    <li>Total: ${{.Total}}</li>
</ul>
<p>Status: {{.Status}}</p>
`))

// Mailer sends order confirmation emails over SMTP.
type Mailer struct {
	client *mail.Client
	from   string
}

func New(host string, port int, user, pass, from string) (*Mailer, error) {
	opts := []mail.Option{
		mail.WithPort(port),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
	}
	if user != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(user),
			mail.WithPassword(pass),
		)
	}

	client, err := mail.NewClient(host, opts...)
	if err != nil {
		return nil, fmt.Errorf("smtp client: %w", err)
	}
	return &Mailer{client: client, from: from}, nil
}

func (m *Mailer) SendOrderEmail(ctx context.Context, to string, evt contracts.OrderCreated) error {
	msg := mail.NewMsg()
	if err := msg.From(m.from); err != nil {
		return fmt.Errorf("set from: %w", err)
	}
	if err := msg.To(to); err != nil {
		return fmt.Errorf("set to: %w", err)
	}

	msg.Subject(fmt.Sprintf("Order #%d Created", evt.OrderID))
	msg.SetBodyString(mail.TypeTextHTML, RenderOrderBody(evt))

	if err := m.client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("send mail: %w", err)
	}
	return nil
}

func RenderOrderBody(evt contracts.OrderCreated) string {
	var b strings.Builder
	if err := bodyTmpl.Execute(&b, evt); err != nil {
		// Template fields come from the event struct; this cannot fail at
		// runtime with a well-formed template.
		return fmt.Sprintf("<p>Your order #%d has been created.</p>", evt.OrderID)
	}
	return b.String()
}
