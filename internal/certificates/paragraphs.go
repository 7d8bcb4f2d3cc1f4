package certificates

import (
	"strings"

	"oleotrax/certificate-portal/pkg/pdf"
)

var (
	bodyRegular = pdf.Helvetica(pdf.Regular, bodyFontSize)
	bodyBold    = pdf.Helvetica(pdf.Bold, bodyFontSize)
)

// attestationRuns is the opening paragraph naming the generator
func (c *Composer) attestationRuns(req CertificateRequest) []pdf.Run {
	return []pdf.Run{
		{Text: "Certificamos que", Font: bodyRegular},
		{Text: strings.TrimSpace(req.CompanyName), Font: bodyBold},
		{Text: ", pessoa jurídica de direito privado, inscrita no CNPJ/MF sob nº " +
			strings.TrimSpace(req.TaxID) + ", com sede " + strings.TrimSpace(req.Address) +
			", destina seus resíduos de óleo e gordura vegetal de forma sustentável, dando um " +
			"destino ambientalmente correto aos resíduos de gordura e óleo vegetal de seu estabelecimento.",
			Font: bodyRegular, Attach: true},
	}
}

// storageRuns names the issuer in bold inside the storage sentence and puts
// its registration on a line of its own
func (c *Composer) storageRuns() []pdf.Run {
	issuer := c.config.Issuer
	return []pdf.Run{
		{Text: "Os resíduos são armazenados de forma adequada, em recipientes específicos " +
			"devidamente higienizados e fechados, sendo destinados pela", Font: bodyRegular},
		{Text: issuer.Name, Font: bodyBold},
		{Text: ", CNPJ/MF nº", Font: bodyRegular, Attach: true, Break: true},
		{Text: issuer.TaxID + ", " + issuer.Permit + ".", Font: bodyBold, Break: true},
	}
}

func closingRuns() []pdf.Run {
	return []pdf.Run{
		{Text: "Certificamos ainda, que o resíduo foi coletado e destinado de forma " +
			"ambientalmente correta conforme segue:", Font: bodyRegular},
	}
}
