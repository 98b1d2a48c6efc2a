package services

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"log"
	"time"

	config "github.com/anjiri1684/etuition_backend/configs"
	"github.com/anjiri1684/etuition_backend/database"
	"github.com/anjiri1684/etuition_backend/models"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/google/uuid"
)

// GenerateReceiptForPayment renders a PDF receipt for a settled payment,
// uploads it and stores the URL on the ledger row. Runs in a goroutine
// after settlement commits; failures only cost the download link.
func GenerateReceiptForPayment(paymentID uuid.UUID) {
	var payment models.Payment
	if err := database.DB.First(&payment, "id = ?", paymentID).Error; err != nil {
		log.Printf("🔥 Receipt: payment %s not found: %v", paymentID, err)
		return
	}
	if payment.ReceiptURL != nil {
		return
	}

	var application models.Application
	if err := database.DB.First(&application, "id = ?", payment.ApplicationID).Error; err != nil {
		log.Printf("🔥 Receipt: application %s not found: %v", payment.ApplicationID, err)
		return
	}

	htmlData, err := generateReceiptHTML(&payment, &application)
	if err != nil {
		log.Printf("🔥 Failed to generate receipt HTML: %v", err)
		return
	}

	pdfBytes, err := generatePDFFromHTML(htmlData)
	if err != nil {
		log.Printf("🔥 Failed to generate receipt PDF: %v", err)
		return
	}

	uploadURL, err := uploadReceiptToCloudinary(pdfBytes, payment.TransactionID)
	if err != nil {
		log.Printf("🔥 Failed to upload receipt to Cloudinary: %v", err)
		return
	}

	payment.ReceiptURL = &uploadURL
	if err := database.DB.Save(&payment).Error; err != nil {
		log.Printf("🔥 Failed to store receipt URL for payment %s: %v", payment.ID, err)
		return
	}
	log.Printf("✅ Generated receipt for transaction %s.", payment.TransactionID)
}

func generateReceiptHTML(payment *models.Payment, application *models.Application) (string, error) {
	tmpl, err := template.ParseFiles("templates/receipt.html")
	if err != nil {
		return "", err
	}

	data := struct {
		TransactionID string
		StudentEmail  string
		TutorName     string
		Subject       string
		Amount        string
		PaidAt        string
	}{
		TransactionID: payment.TransactionID,
		StudentEmail:  payment.StudentEmail,
		TutorName:     application.TutorName,
		Subject:       application.TuitionSubject,
		Amount:        fmt.Sprintf("%.2f %s", payment.Amount, payment.Currency),
		PaidAt:        payment.PaidAt.Format("January 2, 2006"),
	}

	var renderedHTML bytes.Buffer
	if err := tmpl.Execute(&renderedHTML, data); err != nil {
		return "", err
	}
	return renderedHTML.String(), nil
}

func generatePDFFromHTML(htmlContent string) ([]byte, error) {
	ctx, cancel := chromedp.NewContext(context.Background())
	defer cancel()

	var pdfBuffer []byte
	err := chromedp.Run(ctx,
		chromedp.Navigate("about:blank"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			frameTree, err := page.GetFrameTree().Do(ctx)
			if err != nil {
				return err
			}
			return page.SetDocumentContent(frameTree.Frame.ID, htmlContent).Do(ctx)
		}),
		chromedp.ActionFunc(func(ctx context.Context) error {
			pdf, _, err := page.PrintToPDF().WithPrintBackground(true).Do(ctx)
			if err != nil {
				return err
			}
			pdfBuffer = pdf
			return nil
		}),
	)
	if err != nil {
		return nil, err
	}
	return pdfBuffer, nil
}

func uploadReceiptToCloudinary(fileBytes []byte, transactionID string) (string, error) {
	cld, err := cloudinary.NewFromURL(config.Config("CLOUDINARY_URL"))
	if err != nil {
		return "", err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	uploadParams := uploader.UploadParams{
		PublicID:     fmt.Sprintf("receipts/%s", transactionID),
		Folder:       "etuition_receipts",
		ResourceType: "raw",
	}

	uploadResult, err := cld.Upload.Upload(ctx, bytes.NewReader(fileBytes), uploadParams)
	if err != nil {
		return "", err
	}

	return uploadResult.SecureURL, nil
}
