package docgen

import (
	"fmt"
	"strings"

	"github.com/pdfcorretor/pdfcorretor/app/models"
)

// Placeholder images used when a property has fewer than three photos,
// so templates never render a broken image slot.
var imagePlaceholders = [3]string{
	"https://img.usecurling.com/p/600/400?q=house",
	"https://img.usecurling.com/p/600/400?q=living%20room",
	"https://img.usecurling.com/p/600/400?q=kitchen",
}

const brokerPhotoPlaceholder = "https://img.usecurling.com/ppl/medium?gender=male"

// Payload is the document generator request. The field groups mirror the
// template placeholder names, so an omitted field is a visible compile-time
// gap instead of a silently blank string.
type Payload struct {
	TemplateID string      `json:"template_id"`
	Data       PayloadData `json:"data"`
}

type PayloadData struct {
	Broker       BrokerFields   `json:"CORRETOR"`
	Client       ClientFields   `json:"CLIENTE"`
	Property     PropertyFields `json:"IMOVEL"`
	Proposal     ProposalFields `json:"PROPOSTA"`
	Items        ItemFields     `json:"ITENS"`
	PaymentTerms PaymentFields  `json:"PAGAMENTO"`
	Config       ConfigFields   `json:"CONFIG"`
}

type BrokerFields struct {
	Name  string `json:"NOME"`
	Creci string `json:"CRECI"`
	Phone string `json:"TELEFONE"`
	Email string `json:"EMAIL"`
	Photo string `json:"FOTO"`
}

type ClientFields struct {
	Name string `json:"NOME"`
}

type PropertyFields struct {
	Name      string `json:"NOME"`
	Address   string `json:"ENDERECO"`
	Area      string `json:"METRAGEM"`
	BasePrice string `json:"VALOR_BASE"`
	Image1    string `json:"IMAGEM1"`
	Image2    string `json:"IMAGEM2"`
	Image3    string `json:"IMAGEM3"`
}

type ProposalFields struct {
	OriginalPrice string `json:"VALOR_ORIGINAL"`
	Discount      string `json:"VALOR_DESCONTO"`
	Savings       string `json:"ECONOMIA"`
	FinalPrice    string `json:"VALOR_FINAL"`
	Unit          string `json:"UNIDADE"`
	ValidUntil    string `json:"VALIDADE"`
	AcceptLink    string `json:"LINK_ACEITAR"`
	AdjustLink    string `json:"LINK_AJUSTES"`
}

type ItemFields struct {
	Item1 string `json:"ITEM1"`
	Item2 string `json:"ITEM2"`
	Item3 string `json:"ITEM3"`
	Item4 string `json:"ITEM4"`
	Item5 string `json:"ITEM5"`
	Item6 string `json:"ITEM6"`
}

type PaymentFields struct {
	Payment1 string `json:"PAGAMENTO1"`
	Payment2 string `json:"PAGAMENTO2"`
	Payment3 string `json:"PAGAMENTO3"`
	Payment4 string `json:"PAGAMENTO4"`
	Payment5 string `json:"PAGAMENTO5"`
	Payment6 string `json:"PAGAMENTO6"`
}

type ConfigFields struct {
	MsgAccept string `json:"MSG_ACCEPT"`
	MsgAdjust string `json:"MSG_ADJUST"`
}

// BuildInput carries everything the payload builder needs; it performs no
// I/O so it stays trivially testable.
type BuildInput struct {
	Broker      *models.User
	Proposal    *models.Proposal
	Property    *models.Property
	TemplateRef string
	AppBaseURL  string
	MsgAccept   string
	MsgAdjust   string
}

// BuildPayload assembles the generator request from proposal, property and
// broker data. Feature bullets are defaults then custom, blank-padded to
// six; payment terms are blank-padded in array order.
func BuildPayload(in BuildInput) Payload {
	base := strings.TrimRight(in.AppBaseURL, "/")

	images := in.Property.Images
	imageAt := func(i int) string {
		if i < len(images) && strings.TrimSpace(images[i]) != "" {
			return images[i]
		}
		return imagePlaceholders[i]
	}

	features := padTo6(in.Property.Features.All())
	payments := padTo6(in.Proposal.PaymentTerms)

	photo := in.Broker.AvatarURL
	if strings.TrimSpace(photo) == "" {
		photo = brokerPhotoPlaceholder
	}

	unit := in.Proposal.Unit
	if strings.TrimSpace(unit) == "" {
		unit = "-"
	}

	return Payload{
		TemplateID: in.TemplateRef,
		Data: PayloadData{
			Broker: BrokerFields{
				Name:  in.Broker.Name,
				Creci: in.Broker.Creci,
				Phone: in.Broker.Phone,
				Email: in.Broker.Email,
				Photo: photo,
			},
			Client: ClientFields{
				Name: in.Proposal.ClientName,
			},
			Property: PropertyFields{
				Name:      in.Property.Name,
				Address:   in.Property.Address,
				Area:      fmt.Sprintf("%d m²", in.Property.SqMeters),
				BasePrice: FormatBRL(in.Property.PriceCents),
				Image1:    imageAt(0),
				Image2:    imageAt(1),
				Image3:    imageAt(2),
			},
			Proposal: ProposalFields{
				OriginalPrice: FormatBRL(in.Proposal.OriginalPriceCents()),
				Discount:      FormatBRL(in.Proposal.DiscountCents),
				Savings:       FormatBRL(in.Proposal.DiscountCents),
				FinalPrice:    FormatBRL(in.Proposal.FinalPriceCents),
				Unit:          unit,
				ValidUntil:    in.Proposal.CreatedAt.AddDate(0, 0, 7).Format("02/01/2006"),
				AcceptLink:    base + "/r/aceitar/" + in.Proposal.PublicRef,
				AdjustLink:    base + "/r/ajustes/" + in.Proposal.PublicRef,
			},
			Items: ItemFields{
				Item1: features[0],
				Item2: features[1],
				Item3: features[2],
				Item4: features[3],
				Item5: features[4],
				Item6: features[5],
			},
			PaymentTerms: PaymentFields{
				Payment1: payments[0],
				Payment2: payments[1],
				Payment3: payments[2],
				Payment4: payments[3],
				Payment5: payments[4],
				Payment6: payments[5],
			},
			Config: ConfigFields{
				MsgAccept: in.MsgAccept,
				MsgAdjust: in.MsgAdjust,
			},
		},
	}
}

func padTo6(values []string) [6]string {
	var out [6]string
	for i := 0; i < len(out) && i < len(values); i++ {
		out[i] = values[i]
	}
	return out
}

// FormatBRL renders cents as a Brazilian Real amount, e.g. "R$ 1.234,56".
func FormatBRL(cents int64) string {
	negative := cents < 0
	if negative {
		cents = -cents
	}

	whole := cents / 100
	frac := cents % 100

	digits := fmt.Sprintf("%d", whole)
	var grouped strings.Builder
	for i, d := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			grouped.WriteByte('.')
		}
		grouped.WriteRune(d)
	}

	sign := ""
	if negative {
		sign = "-"
	}
	return fmt.Sprintf("%sR$ %s,%02d", sign, grouped.String(), frac)
}
