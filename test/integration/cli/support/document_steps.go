package support

import (
	"fmt"
	"strings"

	"github.com/MeKo-Tech/qrscan/internal/testutil"
	"github.com/cucumber/godog"
)

// mediaPrefixes maps document extensions to the archive folder holding
// their embedded images.
var mediaPrefixes = map[string]string{
	".docx": "word/media/",
	".pptx": "ppt/media/",
	".xlsx": "xl/media/",
}

func mediaPrefix(name string) string {
	for ext, prefix := range mediaPrefixes {
		if strings.HasSuffix(name, ext) {
			return prefix
		}
	}
	return "media/"
}

// anOfficeDocumentWithQRCodes writes an office archive embedding count copies
// of a QR image holding text.
func (testCtx *TestContext) anOfficeDocumentWithQRCodes(name string, count int, text string) error {
	png, err := testutil.MakeQRPNG([]byte(text))
	if err != nil {
		return err
	}

	prefix := mediaPrefix(name)
	names := make([]string, 0, count)
	media := make(map[string][]byte, count)
	for i := 1; i <= count; i++ {
		entry := fmt.Sprintf("%simage%d.png", prefix, i)
		names = append(names, entry)
		media[entry] = png
	}

	data, err := testutil.MakeOfficeDoc(names, media)
	if err != nil {
		return err
	}
	return testCtx.writeFixture(name, data)
}

func (testCtx *TestContext) anOfficeDocumentWithAQRCode(name, text string) error {
	return testCtx.anOfficeDocumentWithQRCodes(name, 1, text)
}

func (testCtx *TestContext) aCorruptOfficeDocument(name string) error {
	return testCtx.writeFixture(name, testutil.CorruptZip())
}

func (testCtx *TestContext) aPDFWithAQRCode(name, text string) error {
	png, err := testutil.MakeQRPNG([]byte(text))
	if err != nil {
		return err
	}
	path, err := testutil.MakeImagePDF(testCtx.TempDir, name, [][]byte{png})
	if err != nil {
		return err
	}
	testCtx.Fixtures[name] = path
	return nil
}

func (testCtx *TestContext) anEncryptedPDFWithAQRCode(name, password, text string) error {
	plain := "plain-" + name
	if err := testCtx.aPDFWithAQRCode(plain, text); err != nil {
		return err
	}
	out := testCtx.fixturePath(name)
	if err := testutil.MakeEncryptedPDF(testCtx.Fixtures[plain], out, password); err != nil {
		return err
	}
	testCtx.Fixtures[name] = out
	return nil
}

func (testCtx *TestContext) anImageWithAQRCode(name, text string) error {
	png, err := testutil.MakeQRPNG([]byte(text))
	if err != nil {
		return err
	}
	return testCtx.writeFixture(name, png)
}

func (testCtx *TestContext) anImageWithBinaryQRCode(name string) error {
	png, err := testutil.MakeQRPNG([]byte{0xff, 0xfe, 0x00, 'b', 'i', 'n'})
	if err != nil {
		return err
	}
	return testCtx.writeFixture(name, png)
}

func (testCtx *TestContext) anImageWithALongQRCode(name string, length int) error {
	png, err := testutil.MakeQRPNG([]byte(strings.Repeat("q", length)))
	if err != nil {
		return err
	}
	return testCtx.writeFixture(name, png)
}

func (testCtx *TestContext) aTextFile(name, content string) error {
	return testCtx.writeFixture(name, []byte(content))
}

// RegisterDocumentSteps registers the fixture building steps.
func (testCtx *TestContext) RegisterDocumentSteps(sc *godog.ScenarioContext) {
	sc.Step(`^an office document "([^"]*)" with a QR code encoding "([^"]*)"$`, testCtx.anOfficeDocumentWithAQRCode)
	sc.Step(`^an office document "([^"]*)" with (\d+) QR codes encoding "([^"]*)"$`, testCtx.anOfficeDocumentWithQRCodes)
	sc.Step(`^a corrupt office document "([^"]*)"$`, testCtx.aCorruptOfficeDocument)
	sc.Step(`^a PDF "([^"]*)" with a QR code encoding "([^"]*)"$`, testCtx.aPDFWithAQRCode)
	sc.Step(`^an encrypted PDF "([^"]*)" with password "([^"]*)" and a QR code encoding "([^"]*)"$`,
		testCtx.anEncryptedPDFWithAQRCode)
	sc.Step(`^an image "([^"]*)" with a QR code encoding "([^"]*)"$`, testCtx.anImageWithAQRCode)
	sc.Step(`^an image "([^"]*)" with a QR code holding binary data$`, testCtx.anImageWithBinaryQRCode)
	sc.Step(`^an image "([^"]*)" with a QR code holding (\d+) characters$`, testCtx.anImageWithALongQRCode)
	sc.Step(`^a text file "([^"]*)" containing "([^"]*)"$`, testCtx.aTextFile)
}
