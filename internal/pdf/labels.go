package pdf

import "strings"

type Locale string

const (
	LocaleBG Locale = "bg"
	LocaleEN Locale = "en"
)

// ParseLocale maps free text to a supported locale, defaulting to Bulgarian.
func ParseLocale(raw string) Locale {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "en", "en-us", "en-gb":
		return LocaleEN
	default:
		return LocaleBG
	}
}

type Variant string

const (
	VariantCustomerOffer Variant = "customer-offer"
	VariantServiceCard   Variant = "service-card"
)

func ParseVariant(raw string) (Variant, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "offer", "customer-offer":
		return VariantCustomerOffer, true
	case "service-card", "card", "internal":
		return VariantServiceCard, true
	default:
		return "", false
	}
}

// Kind is the file name prefix of the variant.
func (v Variant) Kind() string {
	if v == VariantServiceCard {
		return "service-card"
	}
	return "offer"
}

// FileName suggests a download name such as "offer-2026-00012.pdf".
func FileName(variant Variant, offerNumber string) string {
	number := sanitizeFileName(offerNumber)
	if number == "" {
		number = "draft"
	}
	return variant.Kind() + "-" + number + ".pdf"
}

func sanitizeFileName(input string) string {
	result := make([]rune, 0, len(input))
	for _, r := range input {
		switch {
		case r >= 'a' && r <= 'z':
			result = append(result, r)
		case r >= 'A' && r <= 'Z':
			result = append(result, r)
		case r >= '0' && r <= '9':
			result = append(result, r)
		case r == '-', r == '_':
			result = append(result, r)
		default:
			result = append(result, '-')
		}
	}
	return strings.Trim(string(result), "-")
}

type labels struct {
	offerTitle       string
	serviceCardTitle string
	draft            string
	customer         string
	vehicle          string
	plate            string
	phone            string
	email            string
	address          string
	vin              string
	mileage          string
	km               string
	date             string
	registrationNo   string
	vatNo            string
	parts            string
	labor            string
	colIndex         string
	colDescription   string
	colBrand         string
	colPartNumber    string
	colQuantity      string
	colUnitPrice     string
	colLineTotal     string
	colAction        string
	colDuration      string
	colRate          string
	summary          string
	colNet           string
	colVATRate       string
	colVAT           string
	colGross         string
	total            string
	discount         string
	prepayments      string
	prepaid          string
	amountDue        string
	notes            string
	issuedIn         string
	issuedAt         string
	createdBy        string
	contact          string
	disclaimer       string
	page             string
	dateLayout       string
	timestampLayout  string
}

var localeLabels = map[Locale]labels{
	LocaleBG: {
		offerTitle:       "Оферта",
		serviceCardTitle: "Сервизна карта",
		draft:            "чернова",
		customer:         "Клиент",
		vehicle:          "Автомобил",
		plate:            "Рег. номер",
		phone:            "Телефон",
		email:            "Имейл",
		address:          "Адрес",
		vin:              "VIN",
		mileage:          "Пробег",
		km:               "км",
		date:             "Дата",
		registrationNo:   "ЕИК",
		vatNo:            "ДДС №",
		parts:            "Части",
		labor:            "Труд",
		colIndex:         "№",
		colDescription:   "Описание",
		colBrand:         "Марка",
		colPartNumber:    "Каталожен №",
		colQuantity:      "Кол.",
		colUnitPrice:     "Ед. цена с ДДС",
		colLineTotal:     "Сума с ДДС",
		colAction:        "Дейност",
		colDuration:      "Време",
		colRate:          "Цена/час с ДДС",
		summary:          "Обобщение",
		colNet:           "Без ДДС",
		colVATRate:       "ДДС %",
		colVAT:           "ДДС",
		colGross:         "С ДДС",
		total:            "Общо",
		discount:         "Отстъпка",
		prepayments:      "Авансови плащания",
		prepaid:          "Платено",
		amountDue:        "Остава за плащане",
		notes:            "Бележки",
		issuedIn:         "Място на издаване",
		issuedAt:         "Издадено на",
		createdBy:        "Съставил",
		contact:          "Контакт",
		disclaimer:       "Цените в офертата са валидни 7 дни от датата на издаване и могат да бъдат променени при промяна в цените на доставчиците.",
		page:             "Стр.",
		dateLayout:       "02.01.2006",
		timestampLayout:  "02.01.2006 15:04",
	},
	LocaleEN: {
		offerTitle:       "Offer",
		serviceCardTitle: "Service card",
		draft:            "draft",
		customer:         "Customer",
		vehicle:          "Vehicle",
		plate:            "Plate",
		phone:            "Phone",
		email:            "Email",
		address:          "Address",
		vin:              "VIN",
		mileage:          "Mileage",
		km:               "km",
		date:             "Date",
		registrationNo:   "Reg. No.",
		vatNo:            "VAT No.",
		parts:            "Parts",
		labor:            "Labor",
		colIndex:         "#",
		colDescription:   "Description",
		colBrand:         "Brand",
		colPartNumber:    "Part No.",
		colQuantity:      "Qty",
		colUnitPrice:     "Unit price incl. VAT",
		colLineTotal:     "Total incl. VAT",
		colAction:        "Action",
		colDuration:      "Time",
		colRate:          "Rate/h incl. VAT",
		summary:          "Summary",
		colNet:           "Net",
		colVATRate:       "VAT %",
		colVAT:           "VAT",
		colGross:         "Gross",
		total:            "Total",
		discount:         "Discount",
		prepayments:      "Prepayments",
		prepaid:          "Paid",
		amountDue:        "Amount due",
		notes:            "Notes",
		issuedIn:         "Place of issue",
		issuedAt:         "Issued at",
		createdBy:        "Prepared by",
		contact:          "Contact",
		disclaimer:       "Prices in this offer are valid for 7 days from the date of issue and may change if supplier prices change.",
		page:             "Page",
		dateLayout:       "02 Jan 2006",
		timestampLayout:  "02 Jan 2006, 15:04",
	},
}

func labelsFor(locale Locale) labels {
	if l, ok := localeLabels[locale]; ok {
		return l
	}
	return localeLabels[LocaleBG]
}
