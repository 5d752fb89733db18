package mailer

import (
	"fmt"
	"strings"

	"gopkg.in/gomail.v2"
)

type IEmailService interface {
	SendSyncFailureAlert(toEmail string, failures []SyncFailure) error
}

type SyncFailure struct {
	SourceId string
	Title    string
	Reason   string
}

type emailService struct {
	dialer      *gomail.Dialer
	senderEmail string
}

func NewEmailService(host string, port int, username, password, senderEmail string) IEmailService {
	d := gomail.NewDialer(host, port, username, password)

	return &emailService{
		dialer:      d,
		senderEmail: senderEmail,
	}
}

func (s *emailService) SendSyncFailureAlert(toEmail string, failures []SyncFailure) error {
	if len(failures) == 0 {
		return nil
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.senderEmail)
	m.SetHeader("To", toEmail)
	m.SetHeader("Subject", fmt.Sprintf("Knowledge base sync: %d document(s) failed", len(failures)))

	var rows strings.Builder
	for _, f := range failures {
		rows.WriteString(fmt.Sprintf(`
			<tr>
				<td style="padding: 6px 12px; border: 1px solid #ddd;">%s</td>
				<td style="padding: 6px 12px; border: 1px solid #ddd;">%s</td>
				<td style="padding: 6px 12px; border: 1px solid #ddd;">%s</td>
			</tr>
		`, f.SourceId, f.Title, f.Reason))
	}

	body := fmt.Sprintf(`
		<div style="font-family: Arial, sans-serif; padding: 20px; color: #333;">
			<h2>Knowledge Base Sync Report</h2>
			<p>The following documents failed to sync and are still serving stale content:</p>
			<table style="border-collapse: collapse;">
				<tr>
					<th style="padding: 6px 12px; border: 1px solid #ddd;">Source ID</th>
					<th style="padding: 6px 12px; border: 1px solid #ddd;">Title</th>
					<th style="padding: 6px 12px; border: 1px solid #ddd;">Reason</th>
				</tr>
				%s
			</table>
			<p>Check the sync logs for details and re-trigger once the source is reachable.</p>
		</div>
	`, rows.String())

	m.SetBody("text/html", body)

	if err := s.dialer.DialAndSend(m); err != nil {
		fmt.Printf("[MAILER ERROR] Failed to send sync alert to %s: %v\n", toEmail, err)
		return err
	}

	fmt.Printf("[MAILER] Sync failure alert sent to %s\n", toEmail)
	return nil
}
