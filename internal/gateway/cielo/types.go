package cielo

// Wire types for the Cielo e-commerce API (v3). Field names follow the
// provider's PascalCase JSON.

type saleRequest struct {
	MerchantOrderID string      `json:"MerchantOrderId"`
	Customer        customer    `json:"Customer"`
	Payment         salePayment `json:"Payment"`
}

type customer struct {
	Name  string `json:"Name"`
	Email string `json:"Email,omitempty"`
}

type salePayment struct {
	Type         string      `json:"Type"`
	Amount       int64       `json:"Amount"` // cents
	Installments int         `json:"Installments,omitempty"`
	Capture      bool        `json:"Capture"`
	CreditCard   *creditCard `json:"CreditCard,omitempty"`

	// Pix
	QrCodeExpiration int `json:"QrCodeExpiration,omitempty"` // seconds

	// Boleto
	ExpirationDate string `json:"ExpirationDate,omitempty"` // YYYY-MM-DD
	Provider       string `json:"Provider,omitempty"`
}

type creditCard struct {
	CardToken string `json:"CardToken"`
	Brand     string `json:"Brand,omitempty"`
}

type saleResponse struct {
	MerchantOrderID string          `json:"MerchantOrderId"`
	Payment         paymentResponse `json:"Payment"`
}

type paymentResponse struct {
	PaymentID     string `json:"PaymentId"`
	Type          string `json:"Type"`
	Amount        int64  `json:"Amount"`
	Status        int    `json:"Status"`
	ReturnCode    string `json:"ReturnCode"`
	ReturnMessage string `json:"ReturnMessage"`

	// Card
	Tid               string `json:"Tid,omitempty"`
	AuthorizationCode string `json:"AuthorizationCode,omitempty"`
	AuthenticationURL string `json:"AuthenticationUrl,omitempty"`

	// Pix
	QrCodeBase64Image string `json:"QrCodeBase64Image,omitempty"`
	QrCodeString      string `json:"QrCodeString,omitempty"`

	// Boleto
	URL            string `json:"Url,omitempty"`
	DigitableLine  string `json:"DigitableLine,omitempty"`
	BarCodeNumber  string `json:"BarCodeNumber,omitempty"`
	ExpirationDate string `json:"ExpirationDate,omitempty"`
}

type operationResponse struct {
	Status        int    `json:"Status"`
	ReturnCode    string `json:"ReturnCode"`
	ReturnMessage string `json:"ReturnMessage"`
}

// apiError is one element of the provider's error array response.
type apiError struct {
	Code    int    `json:"Code"`
	Message string `json:"Message"`
}
