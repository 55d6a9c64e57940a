package email

// BaseTemplate is the layout every message is wrapped in.
const BaseTemplate = `<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <style>
        body { margin: 0; padding: 0; font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, Arial, sans-serif; background: #f5f5f4; color: #1c1917; }
        .container { max-width: 600px; margin: 0 auto; padding: 32px 16px; }
        .card { background: #ffffff; border-radius: 12px; padding: 28px; border: 1px solid #e7e5e4; }
        h2 { font-size: 22px; margin: 0 0 16px; }
        p { font-size: 15px; line-height: 1.6; margin: 0 0 14px; color: #44403c; }
        .btn { display: inline-block; background: #0f766e; color: #ffffff !important; text-decoration: none; padding: 12px 24px; border-radius: 8px; font-weight: 600; }
        .muted { color: #a8a29e; font-size: 12px; text-align: center; margin-top: 24px; }
        table.details td { padding: 4px 12px 4px 0; font-size: 14px; }
    </style>
</head>
<body>
    <div class="container">
        <div class="card">{{.Content}}</div>
        <p class="muted">RentNest</p>
    </div>
</body>
</html>`

// BookingCreatedTemplate confirms a new booking request to the tenant.
const BookingCreatedTemplate = `
<h2>Hi {{.Name}}, we received your booking request</h2>
<p>The host of <strong>{{.ApartmentTitle}}</strong> will review it shortly.</p>
<table class="details">
    <tr><td>Check-in</td><td>{{.StartDate}}</td></tr>
    <tr><td>Check-out</td><td>{{.EndDate}}</td></tr>
    <tr><td>Total</td><td>{{.TotalPrice}}</td></tr>
</table>
<p><a class="btn" href="{{.BookingURL}}">View booking</a></p>`

// BookingStatusTemplate announces approve/reject/cancel/refund changes.
const BookingStatusTemplate = `
<h2>Your booking is now {{.Status}}</h2>
<p><strong>{{.ApartmentTitle}}</strong>, {{.StartDate}} to {{.EndDate}}.</p>
<p><a class="btn" href="{{.BookingURL}}">Open booking</a></p>`

// VerifyEmailTemplate carries the signed verification link.
const VerifyEmailTemplate = `
<h2>Welcome{{if .Name}}, {{.Name}}{{end}}!</h2>
<p>Please confirm your email address. The link is valid for 60 days.</p>
<p><a class="btn" href="{{.VerifyURL}}">Confirm email</a></p>`

// PlainTemplate wraps a free-form body.
const PlainTemplate = `<p>{{.Body}}</p>`
