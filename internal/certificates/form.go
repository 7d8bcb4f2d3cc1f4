package certificates

import "html/template"

type formPage struct {
	Issuer string
	Error  string
	Values CertificateForm
}

var formTemplate = template.Must(template.New("form").Parse(`<!DOCTYPE html>
<html lang="pt-BR">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>{{.Issuer}} - Certificados</title>
    <style>
        * { margin: 0; padding: 0; box-sizing: border-box; }
        body { font-family: Arial, sans-serif; background: linear-gradient(135deg, #1e7a4d 0%, #2d9f65 100%); min-height: 100vh; padding: 15px; }
        .container { background: white; border-radius: 12px; padding: 20px; max-width: 500px; margin: 0 auto; box-shadow: 0 8px 30px rgba(0,0,0,0.2); }
        h1 { color: #1e7a4d; text-align: center; font-size: 24px; margin-bottom: 15px; }
        .error { background: #fdecea; color: #a12622; padding: 10px; border-radius: 8px; margin-bottom: 12px; }
        .form-group { margin-bottom: 12px; }
        label { display: block; color: #333; font-size: 13px; margin-bottom: 4px; }
        input, textarea { width: 100%; padding: 10px; border: 2px solid #ddd; border-radius: 8px; font-size: 15px; }
        input:focus, textarea:focus { outline: none; border-color: #1e7a4d; }
        .row { display: grid; grid-template-columns: 1fr 1fr; gap: 10px; }
        button { width: 100%; padding: 14px; background: #1e7a4d; color: white; border: none; border-radius: 8px; font-size: 16px; cursor: pointer; }
        @media (max-width: 500px) { .row { grid-template-columns: 1fr; } }
    </style>
</head>
<body>
    <div class="container">
        <h1>{{.Issuer}} - Gerador de Certificado</h1>
        {{if .Error}}<div class="error">{{.Error}}</div>{{end}}
        <form method="POST" action="/gerar">
            <div class="form-group">
                <label for="data">Data da Coleta *</label>
                <input type="date" id="data" name="data" value="{{.Values.Date}}" required>
            </div>
            <div class="form-group">
                <label for="empresa">Nome da Empresa *</label>
                <input type="text" id="empresa" name="empresa" value="{{.Values.Company}}" required>
            </div>
            <div class="form-group">
                <label for="cnpj">CNPJ *</label>
                <input type="text" id="cnpj" name="cnpj" value="{{.Values.TaxID}}" required placeholder="12.345.678/0001-99">
            </div>
            <div class="form-group">
                <label for="endereco">Endereço Completo *</label>
                <textarea id="endereco" name="endereco" required placeholder="Rua, número, bairro, cidade/estado">{{.Values.Address}}</textarea>
            </div>
            <div class="row">
                <div class="form-group">
                    <label for="quantidade">Quantidade (L) *</label>
                    <input type="text" inputmode="decimal" id="quantidade" name="quantidade" value="{{.Values.Quantity}}" required>
                </div>
                <div class="form-group">
                    <label for="acond">Acondicionamento *</label>
                    <input type="text" id="acond" name="acond" value="{{.Values.Packaging}}" required placeholder="Ex: Bombona plástica 50L">
                </div>
            </div>
            <button type="submit">Gerar Certificado PDF</button>
        </form>
    </div>
    <script>
        var date = document.getElementById('data');
        if (!date.value) { date.valueAsDate = new Date(); }
    </script>
</body>
</html>
`))
