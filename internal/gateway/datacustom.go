package gateway

import (
	"encoding/base64"
	"encoding/json"

	"librapay/internal/constants"
	"librapay/internal/platform"
)

// DATA_CUSTOM carries buyer and product details to the provider's fraud
// screening. It is JSON rather than any native object serialization format,
// which keeps the payload free of deserialization-injection risk, then
// base64-encoded for transport.

type productData struct {
	ItemName string `json:"ItemName"`
	ItemDesc string `json:"ItemDesc"`
	Quantity int    `json:"Quantity"`
	Price    string `json:"Price"`
}

type userData struct {
	Email           string `json:"Email"`
	Name            string `json:"Name"`
	Phone           string `json:"Phone"`
	BillingEmail    string `json:"BillingEmail"`
	BillingName     string `json:"BillingName"`
	BillingPhone    string `json:"BillingPhone"`
	BillingCity     string `json:"BillingCity"`
	BillingCountry  string `json:"BillingCountry"`
	ShippingEmail   string `json:"ShippingEmail"`
	ShippingName    string `json:"ShippingName"`
	ShippingAddress string `json:"ShippingAddress"`
	ShippingPhone   string `json:"ShippingPhone"`
	ShippingCity    string `json:"ShippingCity"`
	ShippingCountry string `json:"ShippingCountry"`
}

type customData struct {
	ProductsData []productData `json:"ProductsData"`
	UserData     userData      `json:"UserData"`
}

// BuildDataCustom assembles the base64-encoded DATA_CUSTOM payload with the
// documented defaults for missing profile fields.
func BuildDataCustom(description, formattedAmount string, user platform.UserProfile) (string, error) {
	desc := Truncate(description, constants.DescriptionMaxLen)

	phone := user.Phone
	if phone == "" {
		phone = constants.DefaultPhone
	}
	city := user.City
	if city == "" {
		city = constants.DefaultCity
	}
	address := user.Address
	if address == "" {
		address = constants.DefaultAddress
	}
	country := user.Country
	if country == "" {
		country = constants.DefaultCountry
	}

	payload := customData{
		ProductsData: []productData{
			{
				ItemName: desc,
				ItemDesc: desc,
				Quantity: 1,
				Price:    formattedAmount,
			},
		},
		UserData: userData{
			Email:           user.Email,
			Name:            user.Name,
			Phone:           phone,
			BillingEmail:    user.Email,
			BillingName:     user.Name,
			BillingPhone:    phone,
			BillingCity:     city,
			BillingCountry:  country,
			ShippingEmail:   user.Email,
			ShippingName:    user.Name,
			ShippingAddress: address,
			ShippingPhone:   phone,
			ShippingCity:    city,
			ShippingCountry: country,
		},
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(data), nil
}

// Truncate cuts s to at most n bytes, the provider's field-length semantics.
func Truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
