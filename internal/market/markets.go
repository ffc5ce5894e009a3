package market

import "github.com/alanyoungcy/perpfeed/internal/domain"

// Flash market accounts.
const (
	SOL        = "3vHoXbUvGhEHFsLUmxyC6VWsbYDreb1zMn9TAp5ijN5K"
	SOLShort   = "9tvuK63WUV2mgWt7AvWUm7kRUpFKsRX1jewyJ21VTWsM"
	SOLLegacy  = "EHUaxjoTqTJTWRwQQNy1Wq4sDGdua5r6YGvFzPcuA1eV"
	BTC        = "GGV4VHTAEyWGyGubXTiQZiPajCEtGv2Ed2G2BHmY3zNZ"
	BTCShort   = "AAHFmCVd4JXXrLFmGBataeCJ6CwrYs4cYMiebXmBFvPE"
	ETH        = "8r5MBC3oULSWdm69yn2q3gBLp6h1AL4Wo11LBzcCZGWJ"
	ETHShort   = "GxkxRPheec7f9ZbamzeWdiHiMbrgyoUV7MFPxXW1387q"
	JUP        = "5QQstJ2LpeHESWqGTWBw5aid8h4cdVUjXU61R84Pj2jr"
	JUPShort   = "Hi8kSmbtzucZpEYxvcq2H1QuyUCRuY3m7WGmTF2RhkVw"
	PYTH       = "9V9eYLhVV13VoSfi3McfMcN7ie4WNkRdTbHggkaT8QCQ"
	PYTHShort  = "2By2fgwfZQetZ56414KBDMZwNBstg3GAJtEePQtf3Aty"
	JTO        = "7gnDo7scDFYmEnXW2JrGRzCrynmbakoCMqaEo7d2fydG"
	JTOShort   = "G7RdCWx4eNfLdagGp4H2tKwhTi9JihBozVLGMVduF1Xe"
	KMNO       = "FaT568uYioPFsf2rFgSSFrNyrqHZfG9LZBReaq56dSYJ"
	KMNOShort  = "Hfkgp91DXQivzd8XihGHh7ansPm1SFfosNZ5CN3yz1PW"
	BONK       = "DvvnSEZueicT9UN9WMvfYP3B4NQDgiNjjtbKLenLakxv"
	BONKShort  = "3EYDn8VkY19QBStG4QtvLAdPScReLS7kuchhterF7ADP"
	W          = "Dk2P1xDyewb9nxsMacw6gfuhTb3DqPZM1Sm97K66CTQK"
	WShort     = "9mMAN4hFvw5AGB6eNay1WvNsGoyK9xcBafZ5tVbHcHQq"
	WIF        = "DRMbqfx6No2MzRLtyo4RUaKExe4daiVAXKsX3F3RAK3u"
	WIFShort   = "9X4S2ZeFdpoTe5LkEUZ6hPqkTo6k4LyYpBZJiwBVRj6"
	RAY        = "aZCThBPnK1j8feCAKnVtS3QjULzNwPDy4a8V3FzbM9V"
	RAYShort   = "6u6QrwkmAF4kzk41FkjpLv8AbYaTtkRtbmVZsPSf7wSd"
	TRUMP      = "53zJK3muUnpmp1LBZKYiiDsJLnqNw9vTWALVanaRMdyv"
	TRUMPShort = "DvK3NQLuwEH525Yw8XchJySNYWiy1gZNY4wfPENBakA3"
	SAMO       = "FULXckUCpsHnUsaXZNys4bFCbY5s2199SEg6eyeQuxTH"
	SAMOShort  = "GchNQzigTFP4bUuH3LwdoDSvn1fexHw84Gtjap8x8Ppm"
	PENGU      = "FPYjBQg9PL1qjCEqSK6RDs4T9Lhip1uJytkpB7zzG35N"
	PENGUShort = "A39w24T4wWqx9ZRk8dPKQjQL9xgwBhPGc1dBmFfBh4mY"
	AUD        = "CxC8u5SBCtu9a53x7jSZtaAuJoKYA2ukXLuMuB9NtqoQ"
	AUDShort   = "JCwYots22PTcPn2XQz9un15kMj6tqEYjUKgQaay5sMY1"
	EURO       = "DXbQZYeT1LfyJvr86wnaMhwkPaFHazmHJkuyb1XzCmo3"
	EUROShort  = "2CvUh7whei331D2djP4W2QwV7UUiMbpKgfJNSDojcjne"
	GBP        = "8p5imag5r4JBZoxb7Wq8ysgu9LpkPix7n4i9z6TJZDt7"
	GBPShort   = "6pKnzQwmrSCz6HK4C4qXUscysGpQj381ksmNwmVHSdJ4"
	XAU        = "88zawd3Rw6tknWvgEm8QBgBuf5Y2GTeA18S788qUrSnM"
	XAUShort   = "G2rj5artQzevbsQtCJ1rkDt3Pd5b6ZYAf8e9AjZPipui"
	XAG        = "Caqzhuj2Hj5MUwQigdtLNokLZbuqs6NrcmwWbMsSqwqH"
	XAGShort   = "7JwSejqoicRSzks3mKwk9TPp5rUNhUttKx2yzgU8UGtc"
)

func long(name string, denom int64, exp int32) domain.MarketInfo {
	return domain.MarketInfo{Name: name, Denomination: denom, Exponent: exp}
}

func short(name string, denom int64, exp int32, base string) domain.MarketInfo {
	return domain.MarketInfo{Name: name, Denomination: denom, Exponent: exp, IsShort: true, BaseMarket: base}
}

// flashMarkets is the built-in Flash market list. The metals short
// accounts keep the long symbol; Flash reports them that way.
var flashMarkets = map[string]domain.MarketInfo{
	SOL:        long("SOL", 1_000_000_000, -8),
	SOLShort:   short("SOL-SHORT", 1_000_000, -8, SOL),
	SOLLegacy:  long("SOL", 1_000_000_000, -8),
	BTC:        long("BTC", 100_000_000, -8),
	BTCShort:   short("BTC-SHORT", 1_000_000, -8, BTC),
	ETH:        long("ETH", 100_000_000, -8),
	ETHShort:   short("ETH-SHORT", 1_000_000, -8, ETH),
	JUP:        long("JUP", 1_000_000, -8),
	JUPShort:   short("JUP-SHORT", 1_000_000, -8, JUP),
	PYTH:       long("PYTH", 1_000_000, -8),
	PYTHShort:  short("PYTH-SHORT", 1_000_000, -8, PYTH),
	JTO:        long("JTO", 1_000_000_000, -8),
	JTOShort:   short("JTO-SHORT", 1_000_000, -8, JTO),
	KMNO:       long("KMNO", 1_000_000, -8),
	KMNOShort:  short("KMNO-SHORT", 1_000_000, -8, KMNO),
	BONK:       long("BONK", 100_000, -10),
	BONKShort:  short("BONK-SHORT", 1_000_000, -10, BONK),
	W:          long("W", 1_000_000, -6),
	WShort:     short("W-SHORT", 1_000_000, -6, W),
	WIF:        long("WIF", 1_000_000, -8),
	WIFShort:   short("WIF-SHORT", 1_000_000, -8, WIF),
	RAY:        long("RAY", 1_000_000, -8),
	RAYShort:   short("RAY-SHORT", 1_000_000, -8, RAY),
	TRUMP:      long("TRUMP", 1_000_000, -8),
	TRUMPShort: short("TRUMP-SHORT", 1_000_000, -8, TRUMP),
	SAMO:       long("SAMO", 1_000_000_000, -8),
	SAMOShort:  short("SAMO-SHORT", 1_000_000, -8, SAMO),
	PENGU:      long("PENGU", 1_000_000, -8),
	PENGUShort: short("PENGU-SHORT", 1_000_000, -8, PENGU),
	AUD:        long("AUD", 100_000, -5),
	AUDShort:   short("AUD-SHORT", 100_000, -5, AUD),
	EURO:       long("EURO", 100_000, -5),
	EUROShort:  short("EURO-SHORT", 100_000, -5, EURO),
	GBP:        long("GBP", 100_000, -5),
	GBPShort:   short("GBP-SHORT", 100_000, -5, GBP),
	XAU:        long("XAU", 100_000_000, -3),
	XAUShort:   short("XAU", 100_000_000, -3, XAU),
	XAG:        long("XAG", 100_000_000, -3),
	XAGShort:   short("XAG", 100_000_000, -3, XAG),
}

// feeExcluded markets are charged a flat fee regardless of side.
var feeExcluded = map[string]struct{}{
	AUD:  {},
	EURO: {},
	GBP:  {},
}
